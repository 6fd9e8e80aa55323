package service

import (
	"errors"
	"fmt"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/internal/model"
	"doc-chat-go/internal/repository"
	"doc-chat-go/pkg/hash"
	"doc-chat-go/pkg/token"

	"gorm.io/gorm"
)

// TokenPair carries the access and refresh tokens issued on login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserProfile is the public view of an account.
type UserProfile struct {
	UserID    uint            `json:"userId"`
	Username  string          `json:"username"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// UserService owns account registration and authentication.
type UserService interface {
	Register(username, password string) (*UserProfile, error)
	Login(username, password string) (*TokenPair, error)
	RefreshToken(refreshToken string) (*TokenPair, error)
	GetProfile(userID uint) (*UserProfile, error)
}

type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{userRepo: userRepo, jwtManager: jwtManager}
}

func (s *userService) Register(username, password string) (*UserProfile, error) {
	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{Username: username, Password: hashed}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %q", apperr.ErrUsernameTaken, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &UserProfile{UserID: user.ID, Username: user.Username, CreatedAt: model.LocalTime(user.CreatedAt)}, nil
}

func (s *userService) Login(username, password string) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bad credentials", apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, fmt.Errorf("%w: bad credentials", apperr.ErrUnauthorized)
	}
	return s.issueTokens(user.ID, user.Username)
}

// RefreshToken exchanges a valid refresh token for a fresh pair.
func (s *userService) RefreshToken(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	// The account may have disappeared since the token was issued.
	if _, err := s.userRepo.FindByID(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: unknown user", apperr.ErrUnauthorized)
	}
	return s.issueTokens(claims.UserID, claims.Username)
}

func (s *userService) GetProfile(userID uint) (*UserProfile, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &UserProfile{UserID: user.ID, Username: user.Username, CreatedAt: model.LocalTime(user.CreatedAt)}, nil
}

func (s *userService) issueTokens(userID uint, username string) (*TokenPair, error) {
	access, err := s.jwtManager.GenerateToken(userID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtManager.GenerateRefreshToken(userID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
