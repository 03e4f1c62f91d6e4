package application

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
)

// PurposePasswordReset marks reset tokens so they cannot be used as access
// tokens and vice versa.
const PurposePasswordReset = "password-reset"

const parseLeeway = 30 * time.Second

// ErrInvalidToken covers every verification failure.
var ErrInvalidToken = apperr.Authentication("Invalid or expired token")

// Claims is the JWT payload.
type Claims struct {
	jwt.RegisteredClaims
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	// Session is shared by a login's token and every refresh of it.
	Session string `json:"sid,omitempty"`
}

// TokenConfig configures TokenService.
type TokenConfig struct {
	Secret   []byte
	Issuer   string
	TTL      time.Duration
	ResetTTL time.Duration
}

// TokenService issues and verifies HS256 tokens.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenService builds a token service.
func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &TokenService{cfg: cfg, now: time.Now}
}

// Issue signs an access token for user that opens a new session.
func (s *TokenService) Issue(userID string, role domain.Role) (string, time.Time, error) {
	return s.IssueInSession(userID, role, uuid.NewString())
}

// IssueInSession signs an access token that continues session.
func (s *TokenService) IssueInSession(userID string, role domain.Role, session string) (string, time.Time, error) {
	return s.sign(userID, string(role), "", session, s.cfg.TTL)
}

// IssueReset signs a password-reset token.
func (s *TokenService) IssueReset(userID string) (string, error) {
	token, _, err := s.sign(userID, "", PurposePasswordReset, "", s.cfg.ResetTTL)
	return token, err
}

// SessionTTL is how long a token issued now can still be accepted.
func (s *TokenService) SessionTTL() time.Duration {
	return s.cfg.TTL + parseLeeway
}

func (s *TokenService) sign(subject, role, purpose, session string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role:    role,
		Purpose: purpose,
		Session: session,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature, issuer and expiry and returns access-token claims.
func (s *TokenService) Parse(token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseReset verifies a password-reset token.
func (s *TokenService) ParseReset(token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != PurposePasswordReset {
		return nil, apperr.Validation("Invalid reset token")
	}
	return claims, nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(parseLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
