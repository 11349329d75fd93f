package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipforge/api/internal/auth"
	"github.com/clipforge/api/internal/model"
)

// ErrInvalidCredentials is returned on bad email/password combinations.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password")

// ErrEmailTaken is returned when registering an existing email.
var ErrEmailTaken = fmt.Errorf("email already registered")

// ErrUserNotFound is returned for missing user records.
var ErrUserNotFound = fmt.Errorf("user not found")

// AuthService manages accounts and issues HMAC-signed tokens.
type AuthService struct {
	redis      *redis.Client
	jwtSecret  string
	expiration time.Duration
}

func NewAuthService(redisClient *redis.Client, jwtSecret string, expirationHours int) *AuthService {
	return &AuthService{
		redis:      redisClient,
		jwtSecret:  jwtSecret,
		expiration: time.Duration(expirationHours) * time.Hour,
	}
}

// Register creates an account and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	// SETNX on the email index keeps registration race-free.
	ok, err := s.redis.SetNX(ctx, emailKey(email), user.ID, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEmailTaken
	}

	if err := s.saveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, User: user.ToResponse()}, nil
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	userID, err := s.redis.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{Token: token, User: user.ToResponse()}, nil
}

// GetUser loads a user record by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*model.User, error) {
	data, err := s.redis.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &auth.LegacyClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) saveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, userKey(user.ID), data, 0).Err()
}

func userKey(id string) string { return "user:" + id }

func emailKey(email string) string { return "user:email:" + email }
