package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/hms-core-api/internal/models"
	appErrors "github.com/noah-isme/hms-core-api/pkg/errors"
)

type mockAuthRepo struct {
	user      *models.User
	binding   *models.IdentityRoleBinding
	tokens    map[string]*models.RefreshToken
	revoked   []string
	created   []*models.RefreshToken
	audits    []models.AuditLog
	passwords map[string]string
	lastLogin *time.Time
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.user == nil || m.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) ResolveRole(ctx context.Context, userID string) (*models.IdentityRoleBinding, error) {
	if m.binding == nil {
		return &models.IdentityRoleBinding{UserID: userID, Role: models.RoleAnonymous}, nil
	}
	return m.binding, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin = &ts
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.passwords == nil {
		m.passwords = make(map[string]string)
	}
	m.passwords[id] = passwordHash
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, "all:"+userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]*models.RefreshToken)
	}
	m.tokens[token.Token] = token
	m.created = append(m.created, token)
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.tokens[token]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, t := range m.tokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "hms-core-api",
	}
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "warden@example.com",
		FullName:     "Warden One",
		PasswordHash: string(hash),
		Active:       true,
	}
}

func TestAuthServiceLoginResolvesRoleIntoToken(t *testing.T) {
	residentID := "res-1"
	repo := &mockAuthRepo{
		user:    activeUser(t, "secret123"),
		binding: &models.IdentityRoleBinding{UserID: "user-1", Role: models.RoleResident, ResidentID: &residentID},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "warden@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleResident, resp.User.Role)
	require.NotNil(t, resp.User.ResidentID)
	assert.Equal(t, "res-1", *resp.User.ResidentID)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleResident, claims.Role)
	require.NotNil(t, claims.ResidentID)
	assert.Equal(t, "res-1", *claims.ResidentID)

	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogin, repo.audits[0].Action)
	require.NotNil(t, repo.lastLogin)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "secret123")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "warden@example.com", Password: "wrong"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Empty(t, repo.audits)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "secret123")
	user.Active = false
	svc := NewAuthService(&mockAuthRepo{user: user}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "warden@example.com", Password: "secret123"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestAuthServiceLoginWithoutBindingFallsBackToAnonymous(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "secret123")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "warden@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAnonymous, resp.User.Role)
	assert.Nil(t, resp.User.ResidentID)
}

func TestAuthServiceSingleSessionRevokesOlderTokens(t *testing.T) {
	repo := &mockAuthRepo{
		user:    activeUser(t, "secret123"),
		binding: &models.IdentityRoleBinding{UserID: "user-1", Role: models.RoleAdmin},
	}
	cfg := testAuthConfig()
	cfg.SingleSession = true
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), cfg)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "warden@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Contains(t, repo.revoked, "all:user-1")
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	repo := &mockAuthRepo{
		user:    activeUser(t, "secret123"),
		binding: &models.IdentityRoleBinding{UserID: "user-1", Role: models.RoleStaff},
		tokens: map[string]*models.RefreshToken{
			"old-token": {
				ID:        "rt-1",
				UserID:    "user-1",
				Token:     "old-token",
				ExpiresAt: time.Now().Add(time.Hour),
			},
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revoked, "rt-1")

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestAuthServiceRefreshRejectsExpired(t *testing.T) {
	repo := &mockAuthRepo{
		user: activeUser(t, "secret123"),
		tokens: map[string]*models.RefreshToken{
			"stale": {
				ID:        "rt-2",
				UserID:    "user-1",
				Token:     "stale",
				ExpiresAt: time.Now().Add(-time.Minute),
			},
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	repo := &mockAuthRepo{
		tokens: map[string]*models.RefreshToken{
			"live": {ID: "rt-3", UserID: "user-1", Token: "live", ExpiresAt: time.Now().Add(time.Hour)},
		},
	}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.Logout(context.Background(), "live", &models.JWTClaims{UserID: "user-1"})
	require.NoError(t, err)
	assert.Contains(t, repo.revoked, "rt-3")
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionLogout, repo.audits[0].Action)
}

func TestAuthServiceLogoutUnknownTokenIsNoop(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.Logout(context.Background(), "missing", nil)
	require.NoError(t, err)
	assert.Empty(t, repo.revoked)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "old-pass")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "old-pass",
		NewPassword: "new-pass-123",
	})
	require.NoError(t, err)
	require.Contains(t, repo.passwords, "user-1")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords["user-1"]), []byte("new-pass-123")))
}

func TestAuthServiceChangePasswordWrongOld(t *testing.T) {
	repo := &mockAuthRepo{user: activeUser(t, "old-pass")}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "user-1", models.ChangePasswordRequest{
		OldPassword: "nope",
		NewPassword: "new-pass-123",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}
