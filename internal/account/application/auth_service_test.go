package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	catalog "github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	"github.com/sngm3741/ethical-choice/api/internal/infrastructure/cache"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	seq   int
	touch error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*domain.User{}}
}

func (f *fakeUsers) Insert(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return ErrUserExists
		}
	}
	f.seq++
	u.ID = fmt.Sprintf("u%d", f.seq)
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) get(id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (f *fakeUsers) mutate(id string, fn func(u *domain.User)) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	fn(u)
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := f.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
	return err
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	if f.touch != nil {
		return f.touch
	}
	_, err := f.mutate(id, func(u *domain.User) { u.LastLogin = &at })
	return err
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) {
		if update.Name != nil {
			u.Name = *update.Name
		}
		if update.Email != nil {
			u.Email = *update.Email
		}
	})
}

func (f *fakeUsers) UpdatePreferences(_ context.Context, id string, prefs map[string]string) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) { u.Preferences = prefs })
}

func (f *fakeUsers) UpdateSurveyResponses(_ context.Context, id string, responses domain.SurveyResponses) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) { u.SurveyResponses = &responses })
}

func (f *fakeUsers) AddStarred(_ context.Context, id, companyID string) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) {
		if !u.HasStarred(companyID) {
			u.StarredCompanies = append(u.StarredCompanies, companyID)
		}
	})
}

func (f *fakeUsers) RemoveStarred(_ context.Context, id, companyID string) (*domain.User, error) {
	return f.mutate(id, func(u *domain.User) {
		kept := u.StarredCompanies[:0]
		for _, c := range u.StarredCompanies {
			if c != companyID {
				kept = append(kept, c)
			}
		}
		u.StarredCompanies = kept
	})
}

type fakeCompanies map[string]catalog.Company

func (f fakeCompanies) FindByID(_ context.Context, id string) (*catalog.Company, error) {
	c, ok := f[id]
	if !ok {
		return nil, apperr.NotFound("company not found")
	}
	return &c, nil
}

func (f fakeCompanies) FindByIDs(_ context.Context, ids []string) ([]catalog.Company, error) {
	out := []catalog.Company{}
	for _, id := range ids {
		if c, ok := f[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestCache(t *testing.T) *cache.Client {
	t.Helper()
	c, err := cache.Open("", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newTestTokens() *TokenService {
	return NewTokenService(TokenConfig{
		Secret:   []byte("test-secret-0123456789"),
		Issuer:   "test",
		TTL:      time.Hour,
		ResetTTL: time.Hour,
	})
}

func newTestAuth(t *testing.T, users *fakeUsers, tokens *TokenService) AuthService {
	t.Helper()
	opts := AuthOptions{RefreshThreshold: 10 * time.Minute, AdminEmails: []string{"Root@Example.com"}}
	return NewAuthService(users, NewPasswordHasher(4), tokens, newTestCache(t), opts, logging.Nop())
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers()
	svc := newTestAuth(t, users, newTestTokens())

	reg, err := svc.Register(ctx, RegisterCommand{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ann@example.com", reg.User.Email)
	assert.Equal(t, domain.RoleUser, reg.User.Role)
	assert.True(t, reg.User.NotificationsEnabled)

	_, err = svc.Register(ctx, RegisterCommand{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	login, err := svc.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, login.User.LastLogin)

	principal, refreshed, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, principal.UserID)
	assert.Equal(t, domain.RoleUser, principal.Role)
	assert.Empty(t, refreshed)

	_, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuth(t, newFakeUsers(), newTestTokens())

	_, err := svc.Register(context.Background(), RegisterCommand{Name: "Ann", Email: "a@example.com", Password: "123"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Register(context.Background(), RegisterCommand{Name: " ", Email: "a@example.com", Password: "secret1"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterAdminEmail(t *testing.T) {
	svc := newTestAuth(t, newFakeUsers(), newTestTokens())

	res, err := svc.Register(context.Background(), RegisterCommand{Name: "Root", Email: "root@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.User.Role)

	principal, _, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, principal.Role)
}

func TestLoginSurvivesLastLoginFailure(t *testing.T) {
	users := newFakeUsers()
	svc := newTestAuth(t, users, newTestTokens())
	_, err := svc.Register(context.Background(), RegisterCommand{Name: "Ann", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	users.touch = fmt.Errorf("write failed")
	res, err := svc.Login(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Nil(t, res.User.LastLogin)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	tokens := newTestTokens()
	svc := newTestAuth(t, newFakeUsers(), tokens)
	ctx := context.Background()

	_, _, err := svc.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokenService(TokenConfig{Secret: []byte("another-secret-987654"), Issuer: "test"})
	forged, _, err := other.Issue("u1", domain.RoleAdmin)
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	reset, err := tokens.IssueReset("u1")
	require.NoError(t, err)
	_, _, err = svc.Authenticate(ctx, reset)
	assert.ErrorIs(t, err, ErrInvalidToken, "reset tokens are not access tokens")

	tokens.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := tokens.Issue("u1", domain.RoleUser)
	require.NoError(t, err)
	tokens.now = time.Now
	_, _, err = svc.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRefreshesNearExpiry(t *testing.T) {
	tokens := newTestTokens()
	svc := newTestAuth(t, newFakeUsers(), tokens)

	tokens.now = func() time.Time { return time.Now().Add(-55 * time.Minute) }
	token, _, err := tokens.Issue("u1", domain.RoleUser)
	require.NoError(t, err)
	tokens.now = time.Now

	principal, refreshed, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.UserID)
	require.NotEmpty(t, refreshed)

	next, _, err := svc.Authenticate(context.Background(), refreshed)
	require.NoError(t, err)
	assert.Equal(t, "u1", next.UserID)
	assert.NotEqual(t, principal.TokenID, next.TokenID)
	assert.NotEmpty(t, next.SessionID)
	assert.Equal(t, principal.SessionID, next.SessionID)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestAuth(t, newFakeUsers(), newTestTokens())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterCommand{Name: "Ann", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	principal, _, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, principal))
	_, _, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	svc := newTestAuth(t, newFakeUsers(), newTestTokens())
	ctx := context.Background()
	res, err := svc.Register(ctx, RegisterCommand{Name: "Ann", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, res.User.ID, "wrong", "secret2")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	err = svc.ChangePassword(ctx, "missing", "secret1", "secret2")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, svc.ChangePassword(ctx, res.User.ID, "secret1", "secret2"))
	_, err = svc.Login(ctx, "a@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "a@example.com", "secret2")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc := newTestAuth(t, newFakeUsers(), newTestTokens())
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterCommand{Name: "Ann", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.RequestPasswordReset(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUnknownEmail)

	token, err := svc.RequestPasswordReset(ctx, "A@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "garbage", "newpass1"), ErrInvalidResetToken)
	require.NoError(t, svc.ResetPassword(ctx, token, "newpass1"))
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "newpass2"), ErrInvalidResetToken, "reset token is single use")

	_, err = svc.Login(ctx, "a@example.com", "newpass1")
	assert.NoError(t, err)
}

func TestLogoutRevokesRefreshedTokens(t *testing.T) {
	tokens := newTestTokens()
	svc := newTestAuth(t, newFakeUsers(), tokens)
	ctx := context.Background()

	tokens.now = func() time.Time { return time.Now().Add(-55 * time.Minute) }
	original, _, err := tokens.Issue("u1", domain.RoleUser)
	require.NoError(t, err)
	tokens.now = time.Now
	other, _, err := tokens.Issue("u1", domain.RoleUser)
	require.NoError(t, err)

	_, refreshed, err := svc.Authenticate(ctx, original)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed)

	principal, _, err := svc.Authenticate(ctx, original)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, principal))

	_, _, err = svc.Authenticate(ctx, original)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = svc.Authenticate(ctx, refreshed)
	assert.ErrorIs(t, err, ErrInvalidToken, "a token refreshed before logout belongs to the same session")

	_, _, err = svc.Authenticate(ctx, other)
	assert.NoError(t, err, "logout leaves the user's other logins alone")
}

func TestLogoutFromRefreshedTokenRevokesOriginal(t *testing.T) {
	tokens := newTestTokens()
	svc := newTestAuth(t, newFakeUsers(), tokens)
	ctx := context.Background()

	tokens.now = func() time.Time { return time.Now().Add(-55 * time.Minute) }
	original, _, err := tokens.Issue("u1", domain.RoleUser)
	require.NoError(t, err)
	tokens.now = time.Now

	_, refreshed, err := svc.Authenticate(ctx, original)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed)

	principal, _, err := svc.Authenticate(ctx, refreshed)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, principal))

	_, _, err = svc.Authenticate(ctx, original)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
