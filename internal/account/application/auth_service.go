package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

var (
	// ErrUserExists is returned by register and by repositories on a duplicate email.
	ErrUserExists         = apperr.Validation("User already exists")
	ErrInvalidCredentials = apperr.Authentication("Invalid credentials")
	ErrWrongPassword      = apperr.Authentication("Current password is incorrect")
	ErrUserNotFound       = apperr.Validation("User not found")
	ErrUnknownEmail       = apperr.Validation("No account found with this email")
	ErrInvalidResetToken  = apperr.Validation("Invalid reset token")
)

const (
	revokedPrefix        = "auth:revoked:"
	revokedSessionPrefix = "auth:revoked-session:"
)

// AuthOptions tunes AuthService.
type AuthOptions struct {
	RefreshThreshold time.Duration
	AdminEmails      []string
}

type authService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens *TokenService
	cache  Cache
	opts   AuthOptions
	admins map[string]struct{}
	logger zerolog.Logger
	now    func() time.Time
}

// NewAuthService wires the auth service.
func NewAuthService(users UserRepository, hasher PasswordHasher, tokens *TokenService, cache Cache, opts AuthOptions, logger zerolog.Logger) AuthService {
	admins := make(map[string]struct{}, len(opts.AdminEmails))
	for _, email := range opts.AdminEmails {
		if e := domain.NormalizeEmail(email); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		cache:  cache,
		opts:   opts,
		admins: admins,
		logger: logger.With().Str("service", "auth").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error) {
	email := domain.NormalizeEmail(cmd.Email)
	name := strings.TrimSpace(cmd.Name)
	if name == "" || email == "" {
		return nil, apperr.Validation("Name and email are required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, err
	}

	role := domain.RoleUser
	if _, ok := s.admins[email]; ok {
		role = domain.RoleAdmin
	}

	now := s.now()
	user := &domain.User{
		Name:                 name,
		Email:                email,
		PasswordHash:         hash,
		Role:                 role,
		StarredCompanies:     []string{},
		NotificationsEnabled: true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	logging.Ctx(ctx, s.logger).Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if !s.hasher.Matches(user.PasswordHash, password) {
		logging.Ctx(ctx, s.logger).Warn().Str("user_id", user.ID).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		// Login still succeeds; lastLogin is informational.
		logging.Ctx(ctx, s.logger).Warn().Err(err).Str("user_id", user.ID).Msg("record last login")
	} else {
		user.LastLogin = &now
	}
	return s.issue(user)
}

func (s *authService) issue(user *domain.User) (*AuthResult, error) {
	token, expires, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expires, User: *user}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (Principal, string, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Principal{}, "", err
	}
	if s.revoked(ctx, claims.ID) || s.sessionRevoked(ctx, claims.Session) {
		return Principal{}, "", ErrInvalidToken
	}

	principal := Principal{
		UserID:    claims.Subject,
		Role:      domain.Role(claims.Role),
		TokenID:   claims.ID,
		SessionID: claims.Session,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if principal.Role == "" {
		principal.Role = domain.RoleUser
	}

	var refreshed string
	if s.opts.RefreshThreshold > 0 && principal.ExpiresAt.Sub(s.now()) < s.opts.RefreshThreshold {
		refreshed, _, err = s.refresh(principal)
		if err != nil {
			logging.Ctx(ctx, s.logger).Warn().Err(err).Str("user_id", principal.UserID).Msg("refresh token")
			refreshed = ""
		}
	}
	return principal, refreshed, nil
}

func (s *authService) refresh(p Principal) (string, time.Time, error) {
	if p.SessionID == "" {
		return s.tokens.Issue(p.UserID, p.Role)
	}
	return s.tokens.IssueInSession(p.UserID, p.Role, p.SessionID)
}

func (s *authService) sessionRevoked(ctx context.Context, sid string) bool {
	if sid == "" {
		return false
	}
	var marker bool
	return s.cache.Get(ctx, revokedSessionPrefix+sid, &marker) && marker
}

func (s *authService) revoked(ctx context.Context, jti string) bool {
	if jti == "" {
		return false
	}
	var marker bool
	return s.cache.Get(ctx, revokedPrefix+jti, &marker) && marker
}

// Logout revokes the presented token and, through its session, every token
// refreshed from the same login. The session marker lives as long as the
// newest token that session could have been handed.
func (s *authService) Logout(ctx context.Context, principal Principal) error {
	if principal.SessionID != "" {
		s.cache.Set(ctx, revokedSessionPrefix+principal.SessionID, true, s.tokens.SessionTTL())
	}
	if principal.TokenID != "" {
		if ttl := principal.ExpiresAt.Sub(s.now()); ttl > 0 {
			s.cache.Set(ctx, revokedPrefix+principal.TokenID, true, ttl)
		}
	}
	logging.Ctx(ctx, s.logger).Info().Str("user_id", principal.UserID).Str("session_id", principal.SessionID).Msg("session revoked")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user %s: %w", userID, err)
	}
	if !s.hasher.Matches(user.PasswordHash, current) {
		return ErrWrongPassword
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password for user %s: %w", userID, err)
	}
	logging.Ctx(ctx, s.logger).Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", ErrUnknownEmail
		}
		return "", fmt.Errorf("lookup user by email: %w", err)
	}
	token, err := s.tokens.IssueReset(user.ID)
	if err != nil {
		return "", err
	}
	logging.Ctx(ctx, s.logger).Info().Str("user_id", user.ID).Msg("password reset requested")
	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, token, next string) error {
	claims, err := s.tokens.ParseReset(token)
	if err != nil {
		return ErrInvalidResetToken
	}
	if s.revoked(ctx, claims.ID) {
		return ErrInvalidResetToken
	}
	if _, err := s.users.FindByID(ctx, claims.Subject); err != nil {
		if apperr.IsNotFound(err) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("find user %s: %w", claims.Subject, err)
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, claims.Subject, hash); err != nil {
		return fmt.Errorf("update password for user %s: %w", claims.Subject, err)
	}
	// Reset tokens are single use.
	if ttl := claims.ExpiresAt.Sub(s.now()); ttl > 0 {
		s.cache.Set(ctx, revokedPrefix+claims.ID, true, ttl)
	}
	logging.Ctx(ctx, s.logger).Info().Str("user_id", claims.Subject).Msg("password reset")
	return nil
}
