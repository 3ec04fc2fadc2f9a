package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"project-tracker/internal/config"
	"project-tracker/internal/models"
	"project-tracker/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	GenerateToken(userID uuid.UUID) (string, time.Time, error)
	ParseToken(tokenString string) (uuid.UUID, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type AuthServiceImpl struct {
	users  *repositories.UserRepository
	secret []byte
	issuer string
	ttl    time.Duration
	cost   int
}

func NewAuthService(users *repositories.UserRepository, cfg config.AuthConfig) *AuthServiceImpl {
	cost := cfg.BCryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthServiceImpl{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		cost:   cost,
	}
}

func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, fieldError("email", "The email has already been taken.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashed, err := HashPassword(input.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fieldError("email", "The email has already been taken.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !VerifyPassword(user.Password, input.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthServiceImpl) GenerateToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature, expiry and issuer and returns the subject.
func (s *AuthServiceImpl) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject: %w", err)
	}
	return userID, nil
}

func (s *AuthServiceImpl) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}
