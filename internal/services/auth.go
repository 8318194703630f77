package services

import (
	"context"
	"errors"
	"time"

	"taskify/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TokenIssuer = "taskify-backend"

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Save(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type RegistrationRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	BCryptCost     int
}

type AuthService interface {
	RegisterUser(ctx context.Context, req RegistrationRequest) (*models.User, error)
	LoginUser(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(userID uuid.UUID) (string, error)
}

type AuthServiceImpl struct {
	users UserStore
	cfg   AuthConfig
}

func NewAuthService(users UserStore, cfg AuthConfig) *AuthServiceImpl {
	if cfg.BCryptCost <= 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = time.Hour
	}
	return &AuthServiceImpl{users: users, cfg: cfg}
}

func (s *AuthServiceImpl) RegisterUser(ctx context.Context, req RegistrationRequest) (*models.User, error) {
	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BCryptCost)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       id,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		IsActive: true,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthServiceImpl) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthServiceImpl) GenerateToken(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"iss":     TokenIssuer,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(s.cfg.AccessTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

var _ AuthService = (*AuthServiceImpl)(nil)
