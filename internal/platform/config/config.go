package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

type Config struct {
	Addr                 string
	Environment          string
	DatabaseURL          string
	JWTSecret            string
	TokenTTL             time.Duration
	OrgPrefix            string
	TempCredentialLength int
	AttendanceTimezone   string
	RunMigrations        bool
	RunSeed              bool
	SeedAdminEmail       string
	SeedAdminPassword    string
	SeedAdminFirstName   string
	SeedAdminLastName    string
	MaxBodyBytes         int64
	ImportMaxBytes       int64
	RateLimit            string
	LoginRateLimit       string
	LogLevel             string
	LogFormat            string
	MetricsEnabled       bool
	IdempotencyTTL       time.Duration
	MaintenanceInterval  time.Duration

	// loadErr holds the first value Load could not parse.
	loadErr error
}

var orgPrefixPattern = regexp.MustCompile(`^[A-Z]{1,8}$`)

func Load() Config {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var loadErr error
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getDuration(v, key, fallback)
		if err != nil && loadErr == nil {
			loadErr = err
		}
		return d
	}

	cfg := Config{
		Addr:                 v.GetString("APP_ADDR"),
		Environment:          v.GetString("APP_ENV"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		TokenTTL:             duration("TOKEN_TTL", 30*time.Minute),
		OrgPrefix:            strings.ToUpper(strings.TrimSpace(v.GetString("ORG_PREFIX"))),
		TempCredentialLength: v.GetInt("TEMP_CREDENTIAL_LENGTH"),
		AttendanceTimezone:   v.GetString("ATTENDANCE_TIMEZONE"),
		RunMigrations:        v.GetBool("RUN_MIGRATIONS"),
		RunSeed:              v.GetBool("RUN_SEED"),
		SeedAdminEmail:       v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword:    v.GetString("SEED_ADMIN_PASSWORD"),
		SeedAdminFirstName:   v.GetString("SEED_ADMIN_FIRST_NAME"),
		SeedAdminLastName:    v.GetString("SEED_ADMIN_LAST_NAME"),
		MaxBodyBytes:         v.GetInt64("MAX_BODY_BYTES"),
		ImportMaxBytes:       v.GetInt64("IMPORT_MAX_BYTES"),
		RateLimit:            v.GetString("RATE_LIMIT"),
		LoginRateLimit:       v.GetString("LOGIN_RATE_LIMIT"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		MetricsEnabled:       v.GetBool("METRICS_ENABLED"),
		IdempotencyTTL:       duration("IDEMPOTENCY_TTL", 24*time.Hour),
		MaintenanceInterval:  duration("MAINTENANCE_INTERVAL", time.Hour),
	}
	cfg.loadErr = loadErr
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ADDR", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "30m")
	v.SetDefault("ORG_PREFIX", "OI")
	v.SetDefault("TEMP_CREDENTIAL_LENGTH", 12)
	v.SetDefault("ATTENDANCE_TIMEZONE", "UTC")
	v.SetDefault("RUN_MIGRATIONS", true)
	v.SetDefault("RUN_SEED", true)
	v.SetDefault("SEED_ADMIN_EMAIL", "")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")
	v.SetDefault("SEED_ADMIN_FIRST_NAME", "System")
	v.SetDefault("SEED_ADMIN_LAST_NAME", "Admin")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("IMPORT_MAX_BYTES", 8<<20)
	v.SetDefault("RATE_LIMIT", "120-M")
	v.SetDefault("LOGIN_RATE_LIMIT", "10-M")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")
	v.SetDefault("MAINTENANCE_INTERVAL", "1h")
}

func getDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", key, err)
	}
	return parsed, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves AttendanceTimezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AttendanceTimezone)
	if err != nil || c.AttendanceTimezone == "" {
		return time.UTC
	}
	return loc
}

func (c Config) Validate() error {
	if c.loadErr != nil {
		return c.loadErr
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if !orgPrefixPattern.MatchString(c.OrgPrefix) {
		return fmt.Errorf("ORG_PREFIX must be 1 to 8 uppercase letters")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be a positive duration")
	}
	if c.TempCredentialLength < 8 || c.TempCredentialLength > 64 {
		return fmt.Errorf("TEMP_CREDENTIAL_LENGTH must be between 8 and 64")
	}
	if _, err := time.LoadLocation(c.AttendanceTimezone); err != nil {
		return fmt.Errorf("ATTENDANCE_TIMEZONE is invalid: %w", err)
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.ImportMaxBytes < c.MaxBodyBytes {
		return fmt.Errorf("IMPORT_MAX_BYTES must not be smaller than MAX_BODY_BYTES")
	}
	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("RATE_LIMIT is invalid: %w", err)
	}
	if _, err := limiter.NewRateFromFormatted(c.LoginRateLimit); err != nil {
		return fmt.Errorf("LOGIN_RATE_LIMIT is invalid: %w", err)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be a positive duration")
	}
	if c.MaintenanceInterval < 0 {
		return fmt.Errorf("MAINTENANCE_INTERVAL must not be negative")
	}
	if c.IsProduction() && c.RunSeed && strings.TrimSpace(c.SeedAdminEmail) != "" && strings.TrimSpace(c.SeedAdminPassword) == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
	}
	return nil
}
