package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

func seedUsers(t *testing.T) (string, *UserRepository) {
	t.Helper()
	dir := t.TempDir()
	store := models.UserStore{Users: []models.User{
		{ID: "F1", Name: "Formateur One", Role: models.RoleFormateur, PasswordHash: "$2a$04$hash"},
		{ID: "admin", Name: "Admin", Role: models.RoleAdmin, PasswordHash: "$2a$04$hash2"},
	}}
	data, err := json.Marshal(store)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, UsersFile), data, 0o644))
	return dir, NewUserRepository(dir)
}

func TestUserRepositoryFindByID(t *testing.T) {
	_, repo := seedUsers(t)

	user, err := repo.FindByID("F1")
	require.NoError(t, err)
	require.Equal(t, "Formateur One", user.Name)
	require.Equal(t, models.RoleFormateur, user.Role)

	_, err = repo.FindByID("ghost")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserRepositoryMissingFileIsEmpty(t *testing.T) {
	repo := NewUserRepository(t.TempDir())

	users, err := repo.List()
	require.NoError(t, err)
	require.Empty(t, users)
}

func TestUserRepositoryUpdateLastLogin(t *testing.T) {
	_, repo := seedUsers(t)
	at := time.Date(2025, 1, 20, 8, 30, 0, 0, time.UTC)

	require.NoError(t, repo.UpdateLastLogin("F1", at))
	user, err := repo.FindByID("F1")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	require.Equal(t, at, *user.LastLogin)

	err = repo.UpdateLastLogin("ghost", at)
	require.Error(t, err)
}

func TestUserRepositoryUpdatePasswordHash(t *testing.T) {
	_, repo := seedUsers(t)

	require.NoError(t, repo.UpdatePasswordHash("F1", "$2a$04$newhash"))
	user, err := repo.FindByID("F1")
	require.NoError(t, err)
	require.Equal(t, "$2a$04$newhash", user.PasswordHash)
}
