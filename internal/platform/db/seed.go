package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"hrcore/internal/domain/account"
	"hrcore/internal/platform/config"
)

type Bootstrapper interface {
	Bootstrap(ctx context.Context, in account.BootstrapInput) (bool, error)
}

// Seed creates the configured admin account once. Missing seed credentials
// skip seeding.
func Seed(ctx context.Context, accounts Bootstrapper, cfg config.Config) error {
	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		log.Info().Msg("admin seed skipped: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD unset")
		return nil
	}
	created, err := accounts.Bootstrap(ctx, account.BootstrapInput{
		Email:     email,
		Password:  cfg.SeedAdminPassword,
		FirstName: cfg.SeedAdminFirstName,
		LastName:  cfg.SeedAdminLastName,
	})
	if err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}
	if created {
		log.Info().Str("email", email).Msg("admin account seeded")
	}
	return nil
}
