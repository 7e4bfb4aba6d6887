package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neumaticos/tirestore/internal/users"
	pkgAuth "github.com/neumaticos/tirestore/pkg/auth"
	"github.com/neumaticos/tirestore/pkg/auth/session"
	"github.com/neumaticos/tirestore/pkg/config"
	"github.com/neumaticos/tirestore/pkg/db"
	"github.com/neumaticos/tirestore/pkg/db/models"
	"github.com/neumaticos/tirestore/pkg/enums"
	pkgerrors "github.com/neumaticos/tirestore/pkg/errors"
	"github.com/neumaticos/tirestore/pkg/logger"
	"github.com/neumaticos/tirestore/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	minPasswordLength         = 6
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type service struct {
	users       userRepository
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// Register creates a shopper account and signs it in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Phone:        req.Phone,
		Role:         enums.UserRoleUser,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	return s.issue(ctx, user, s.now())
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now
	s.rehashIfNeeded(ctx, user, req.Password)

	return s.issue(ctx, user, now)
}

// Refresh exchanges a refresh token for a new token pair. The old session is
// dropped, so each refresh token works once.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, claims.UserID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		_ = s.session.Revoke(ctx, newAccessID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	accessToken, err := s.mint(user, newAccessID, s.now())
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

// Logout drops the session bound to the access token's jti.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issue(ctx context.Context, user *models.User, now time.Time) (*TokenResponse, error) {
	accessID := session.NewAccessID()
	accessToken, err := s.mint(user, accessID, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) mint(user *models.User, accessID string, now time.Time) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// rehashIfNeeded upgrades hashes minted with older argon2 parameters. Failure
// only costs a warning; the login still succeeds.
func (s *service) rehashIfNeeded(ctx context.Context, user *models.User, password string) {
	if !security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		return
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithUserID(ctx, user.ID.String()), "error", err.Error()), "password rehash failed")
		return
	}
	user.PasswordHash = hash
}
