package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

type stubUserStore struct {
	users      map[string]*models.User
	lastLogin  map[string]time.Time
	lastHashes map[string]string
}

func newStubUserStore(t *testing.T) *stubUserStore {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &stubUserStore{
		users: map[string]*models.User{
			"F1": {ID: "F1", Name: "Formateur One", Role: models.RoleFormateur, PasswordHash: string(hash), Modules: []string{"M1"}},
		},
		lastLogin:  map[string]time.Time{},
		lastHashes: map[string]string{},
	}
}

func (s *stubUserStore) FindByID(id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserStore) UpdateLastLogin(id string, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

func (s *stubUserStore) UpdatePasswordHash(id, hash string) error {
	s.lastHashes[id] = hash
	s.users[id].PasswordHash = hash
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *stubUserStore) {
	t.Helper()
	store := newStubUserStore(t)
	return NewAuthService(store, "test-secret", time.Hour, zap.NewNop()), store
}

func TestAuthLoginIssuesValidToken(t *testing.T) {
	svc, store := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "F1", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, int64(3600), resp.ExpiresIn)
	require.Equal(t, "F1", resp.User.ID)
	require.Equal(t, models.RoleFormateur, resp.User.Role)
	require.Contains(t, store.lastLogin, "F1")

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	require.Equal(t, "F1", claims.UserID)
	require.Equal(t, models.RoleFormateur, claims.Role)
}

func TestAuthLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "secret123"})
	require.Error(t, unknownErr)
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Username: "F1", Password: "wrong"})
	require.Error(t, wrongErr)

	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(unknownErr).Code)
	require.Equal(t, appErrors.FromError(unknownErr).Message, appErrors.FromError(wrongErr).Message)
}

func TestAuthValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := NewAuthService(newStubUserStore(t), "other-secret", time.Hour, zap.NewNop())

	resp, err := other.Login(context.Background(), models.LoginRequest{Username: "F1", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.Token)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsExpired(t *testing.T) {
	store := newStubUserStore(t)
	svc := NewAuthService(store, "test-secret", time.Hour, zap.NewNop())
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "F1", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.Token)
	require.Error(t, err)
}

func TestAuthMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	info, err := svc.Me(context.Background(), &models.JWTClaims{UserID: "F1", Role: models.RoleFormateur})
	require.NoError(t, err)
	require.Equal(t, "Formateur One", info.Name)
	require.Equal(t, []string{"M1"}, info.Modules)

	_, err = svc.Me(context.Background(), nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthChangePassword(t *testing.T) {
	svc, store := newAuthFixture(t)
	claims := &models.JWTClaims{UserID: "F1", Role: models.RoleFormateur}

	err := svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "brandnew1",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), claims, models.ChangePasswordRequest{
		OldPassword: "secret123", NewPassword: "brandnew1",
	})
	require.NoError(t, err)
	require.Contains(t, store.lastHashes, "F1")

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "F1", Password: "brandnew1"})
	require.NoError(t, err)
}
