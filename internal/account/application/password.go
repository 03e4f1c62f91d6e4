package application

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

// MinPasswordLength is enforced on register, change and reset.
const MinPasswordLength = 6

// PasswordHasher hashes and checks passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher clamps cost into bcrypt's accepted range.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

// Hash validates and hashes a plaintext password.
func (h PasswordHasher) Hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperr.Validationf("Password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("Password is too long")
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether password matches hash.
func (h PasswordHasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
