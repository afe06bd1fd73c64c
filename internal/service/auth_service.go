package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studentengagement/api/internal/apperr"
	"studentengagement/api/internal/config"
	"studentengagement/api/internal/database"
	"studentengagement/api/internal/models"
	"studentengagement/api/internal/repository"
	"studentengagement/api/internal/security"
)

type AuthService struct {
	db    TxRunner
	repos repository.Manager
	cfg   *config.AppConfig
	log   zerolog.Logger
	now   func() time.Time
	hash  func(password string) (string, error)
}

func NewAuthService(db TxRunner, repos repository.Manager, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		db:    db,
		repos: repos,
		cfg:   cfg,
		log:   log,
		now:   utcNow,
		hash:  security.HashPassword,
	}
}

// UserProfile is the login view of a user. It never carries the password hash.
type UserProfile struct {
	FirstName  string          `json:"firstname"`
	MidName    string          `json:"midname"`
	LastName   string          `json:"lastname"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	Role       models.UserRole `json:"role"`
	CreateTime time.Time       `json:"create_time"`
	LastLogin  time.Time       `json:"last_login"`
}

type LoginResult struct {
	ID    int64
	User  UserProfile
	Token string
}

func (s *AuthService) Login(ctx context.Context, id int64, password string) (LoginResult, error) {
	var (
		user models.User
		now  = s.now()
	)

	err := s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		users := s.repos.Users(tx)

		var err error
		user, err = users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return apperr.New(apperr.ErrNotFound, "No User Found", apperr.Detail{"id": id})
			}
			return apperr.Persistence("select user", err)
		}

		ok, err := security.VerifyPassword(password, user.PasswordHash)
		if err != nil {
			s.log.Warn().Err(err).Int64("user_id", id).Msg("stored password hash unreadable")
		}
		if err != nil || !ok {
			return apperr.New(apperr.ErrUnauthorized, "password is incorrect", apperr.Detail{"error": "invalid credentials"})
		}

		if err := users.UpdateLastLogin(ctx, id, now); err != nil {
			return apperr.Persistence("update last_login", err)
		}

		if security.IsLegacyHash(user.PasswordHash) {
			upgraded, err := s.hash(password)
			if err != nil {
				s.log.Warn().Err(err).Int64("user_id", id).Msg("password rehash skipped")
				return nil
			}
			if err := users.UpdatePasswordHash(ctx, id, upgraded); err != nil {
				return apperr.Persistence("upgrade password hash", err)
			}
			s.log.Info().Int64("user_id", id).Msg("legacy password hash upgraded")
		}
		return nil
	})
	if err != nil {
		return LoginResult{}, apperr.Persistence("login", err)
	}

	// no secret configured means tokens are off
	var token string
	if s.cfg.Security.JWTSecret != "" {
		token, err = security.GenerateAccessToken(s.cfg.Security.JWTSecret, user.ID, string(user.Role), s.cfg.Security.JWTAccessTTL)
		if err != nil {
			return LoginResult{}, fmt.Errorf("issue token: %w", err)
		}
	}

	return LoginResult{
		ID: id,
		User: UserProfile{
			FirstName:  user.FirstName,
			MidName:    user.MidName,
			LastName:   user.LastName,
			Email:      user.Email,
			Phone:      user.Phone,
			Role:       user.Role,
			CreateTime: user.CreateTime,
			LastLogin:  now,
		},
		Token: token,
	}, nil
}

type SignupInput struct {
	ID        int64
	Password  string
	Email     string
	Phone     string
	FirstName string
	MidName   string
	LastName  string
	Role      models.UserRole
}

type SignupResult struct {
	ID        int64
	CreatedAt time.Time
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (SignupResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	if input.Password == "" || input.Email == "" {
		return SignupResult{}, apperr.New(apperr.ErrValidation, "email and password required", nil)
	}
	passwordHash, err := s.hash(input.Password)
	if err != nil {
		return SignupResult{}, err
	}

	now := s.now()
	err = s.db.WithTx(ctx, func(ctx context.Context, tx database.DBTX) error {
		users := s.repos.Users(tx)

		existing, err := users.GetByID(ctx, input.ID)
		if err == nil {
			return userExists(existing)
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return apperr.Persistence("select user", err)
		}

		user := models.User{
			ID:           input.ID,
			CreateTime:   now,
			Email:        input.Email,
			PasswordHash: passwordHash,
			Phone:        input.Phone,
			FirstName:    input.FirstName,
			MidName:      input.MidName,
			LastName:     input.LastName,
			Role:         input.Role,
		}
		if err := users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.New(apperr.ErrConflict, "User Already Exist", apperr.Detail{"id": input.ID})
			}
			return apperr.Persistence("insert user", err)
		}
		return nil
	})
	if err != nil {
		return SignupResult{}, apperr.Persistence("signup", err)
	}

	s.log.Info().Int64("user_id", input.ID).Str("role", string(input.Role)).Msg("user created")
	return SignupResult{ID: input.ID, CreatedAt: now}, nil
}

func userExists(user models.User) error {
	return apperr.New(apperr.ErrConflict, "User Already Exist", apperr.Detail{
		"id": user.ID,
		"user": map[string]any{
			"username": user.Username(),
			"email":    user.Email,
		},
	})
}
