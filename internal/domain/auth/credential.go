package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"hrcore/internal/apperrors"
)

const (
	credentialLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	credentialDigits  = "0123456789"
	credentialSymbols = "!@#$%^&*()"
	credentialAlpha   = credentialLetters + credentialDigits + credentialSymbols

	MinCredentialLength = 8
)

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateTemporaryCredential draws length characters from letters, digits
// and symbols using crypto/rand. Draws are repeated until every class appears.
func GenerateTemporaryCredential(length int) (string, error) {
	if length < MinCredentialLength {
		return "", fmt.Errorf("temporary credential length %d below minimum %d", length, MinCredentialLength)
	}
	max := big.NewInt(int64(len(credentialAlpha)))
	buf := make([]byte, length)
	for attempt := 0; attempt < 64; attempt++ {
		for i := range buf {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			buf[i] = credentialAlpha[n.Int64()]
		}
		candidate := string(buf)
		if hasEveryClass(candidate) {
			return candidate, nil
		}
	}
	return "", errors.New("could not generate temporary credential")
}

func hasEveryClass(value string) bool {
	return strings.ContainsAny(value, credentialLetters) &&
		strings.ContainsAny(value, credentialDigits) &&
		strings.ContainsAny(value, credentialSymbols)
}

// ValidateNewCredential applies the rules for a user-chosen credential.
func ValidateNewCredential(current, next string) error {
	if len(next) < MinCredentialLength {
		return fmt.Errorf("%w: new credential must be at least %d characters", apperrors.ErrValidation, MinCredentialLength)
	}
	if strings.TrimSpace(next) != next {
		return fmt.Errorf("%w: new credential must not start or end with whitespace", apperrors.ErrValidation)
	}
	if next == current {
		return fmt.Errorf("%w: new credential must differ from the current one", apperrors.ErrValidation)
	}
	return nil
}
