package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edt-api/internal/models"
	appErrors "github.com/noah-isme/edt-api/pkg/errors"
)

type userStore interface {
	FindByID(id string) (*models.User, error)
	UpdateLastLogin(id string, at time.Time) error
	UpdatePasswordHash(id, hash string) error
}

// AuthService authenticates collaborators against the users file and issues
// JWTs consumed by the middleware.
type AuthService struct {
	users      userStore
	secret     []byte
	expiration time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService wires the service.
func NewAuthService(users userStore, secret string, expiration time.Duration, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &AuthService{
		users:      users,
		secret:     []byte(secret),
		expiration: expiration,
		logger:     logger,
		now:        time.Now,
	}
}

// Login verifies credentials and returns a signed token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByID(req.Username)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	issued := s.now().UTC()
	token, err := s.sign(user, issued)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign token")
	}

	if err := s.users.UpdateLastLogin(user.ID, issued); err != nil {
		s.logger.Warn("last login stamp failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(s.expiration.Seconds()),
		IssuedAt:  issued,
		User: models.UserInfo{
			ID:      user.ID,
			Name:    user.Name,
			Role:    user.Role,
			Modules: user.Modules,
		},
	}, nil
}

// Me resolves the claims back to the stored collaborator.
func (s *AuthService) Me(ctx context.Context, claims *models.JWTClaims) (*models.UserInfo, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	user, err := s.users.FindByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	return &models.UserInfo{
		ID:      user.ID,
		Name:    user.Name,
		Role:    user.Role,
		Modules: user.Modules,
	}, nil
}

// ChangePassword verifies the old password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, claims *models.JWTClaims, req models.ChangePasswordRequest) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	user, err := s.users.FindByID(claims.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)) != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "old password does not match")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "hash password")
	}
	return s.users.UpdatePasswordHash(user.ID, string(hash))
}

// ValidateToken parses and verifies a bearer token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) sign(user *models.User, issued time.Time) (string, error) {
	claims := models.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
