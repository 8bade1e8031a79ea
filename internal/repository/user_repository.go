package repository

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

// UsersFile is the collaborator store filename inside the data directory.
const UsersFile = "users.json"

// UserRepository stores collaborators in one JSON file.
type UserRepository struct {
	path string
	mu   sync.Mutex
}

// NewUserRepository builds a store rooted at dataDir.
func NewUserRepository(dataDir string) *UserRepository {
	return &UserRepository{path: filepath.Join(dataDir, UsersFile)}
}

// FindByID returns one collaborator.
func (r *UserRepository) FindByID(id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.loadLocked()
	if err != nil {
		return nil, err
	}
	for i := range store.Users {
		if store.Users[i].ID == id {
			user := store.Users[i]
			return &user, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("user %s not found", id))
}

// List returns every collaborator.
func (r *UserRepository) List() ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.loadLocked()
	if err != nil {
		return nil, err
	}
	return append([]models.User(nil), store.Users...), nil
}

// UpdateLastLogin stamps the login time.
func (r *UserRepository) UpdateLastLogin(id string, at time.Time) error {
	return r.update(id, func(u *models.User) {
		t := at.UTC()
		u.LastLogin = &t
	})
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func (r *UserRepository) UpdatePasswordHash(id, hash string) error {
	return r.update(id, func(u *models.User) {
		u.PasswordHash = hash
	})
}

func (r *UserRepository) update(id string, mutate func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.loadLocked()
	if err != nil {
		return err
	}
	for i := range store.Users {
		if store.Users[i].ID == id {
			mutate(&store.Users[i])
			return writeJSONDocument(r.path, store)
		}
	}
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("user %s not found", id))
}

func (r *UserRepository) loadLocked() (*models.UserStore, error) {
	store := &models.UserStore{}
	if err := readJSONDocument(r.path, store); err != nil {
		if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
			return &models.UserStore{Users: []models.User{}}, nil
		}
		return nil, err
	}
	if store.Users == nil {
		store.Users = []models.User{}
	}
	return store, nil
}
