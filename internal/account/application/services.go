// Package application implements registration, login, token handling and
// profile management.
package application

import (
	"context"
	"time"

	"github.com/sngm3741/ethical-choice/api/internal/account/domain"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
)

// UserRepository persists users. Lookups return an apperr NotFound for
// unknown ids or emails; Insert returns ErrUserExists on a duplicate email.
type UserRepository interface {
	Insert(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
	UpdatePreferences(ctx context.Context, id string, prefs map[string]string) (*domain.User, error)
	UpdateSurveyResponses(ctx context.Context, id string, responses domain.SurveyResponses) (*domain.User, error)
	AddStarred(ctx context.Context, id, companyID string) (*domain.User, error)
	RemoveStarred(ctx context.Context, id, companyID string) (*domain.User, error)
}

// CompanyLookup resolves starred companies.
type CompanyLookup interface {
	FindByID(ctx context.Context, id string) (*catalog.Company, error)
	FindByIDs(ctx context.Context, ids []string) ([]catalog.Company, error)
}

// Cache is the subset of the cache client used for token revocation.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
}

// Principal is the authenticated caller derived from a token.
type Principal struct {
	UserID    string
	Role      domain.Role
	TokenID   string
	SessionID string
	ExpiresAt time.Time
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

// RegisterCommand creates an account.
type RegisterCommand struct {
	Name     string
	Email    string
	Password string
}

// AuthService covers credentials and tokens.
type AuthService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Authenticate verifies a bearer token. refreshed is non-empty when the
	// token is close to expiry and a replacement was issued.
	Authenticate(ctx context.Context, token string) (principal Principal, refreshed string, err error)
	Logout(ctx context.Context, principal Principal) error
	ChangePassword(ctx context.Context, userID, current, next string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, next string) error
}

// ProfileService covers the signed-in user's own data.
type ProfileService interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs map[string]string) (*domain.User, error)
	UpdateSurveyResponses(ctx context.Context, userID string, responses domain.SurveyResponses) (*domain.User, error)
	Starred(ctx context.Context, userID string) ([]catalog.Company, error)
	Star(ctx context.Context, userID, companyID string) (*domain.User, error)
	Unstar(ctx context.Context, userID, companyID string) (*domain.User, error)
}
