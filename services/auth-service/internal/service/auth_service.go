package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agencysite.io/cms/pkg/jwt"
	"agencysite.io/cms/services/auth-service/internal/domain"
)

type Options struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int // 0 means bcrypt.DefaultCost
}

// authService implements domain.AuthService using a UserRepository.
type authService struct {
	repo         domain.UserRepository
	tokenManager jwt.TokenManager
	opts         Options
	log          *zap.SugaredLogger
}

// NewAuthService creates a new AuthService with the given UserRepository.
func NewAuthService(repo domain.UserRepository, tokenManager jwt.TokenManager, opts Options, log *zap.SugaredLogger) domain.AuthService {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{repo: repo, tokenManager: tokenManager, opts: opts, log: log}
}

// Login authenticates a user by email and password. Unknown emails and wrong
// passwords produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := checkPassword(user.Password, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	pair, err := s.issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	s.log.Infow("user logged in", "user_id", user.ID)
	return &domain.LoginResponse{
		Success:      true,
		Token:        pair.AccessToken,
		ExpiresAt:    pair.ExpiresAt.Unix(),
		RefreshToken: pair.RefreshToken,
		User:         *user,
	}, nil
}

// Register creates a new user account.
func (s *authService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	hashed, err := hashPassword(req.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &domain.User{
		Email:    req.Email,
		Username: strings.TrimSpace(req.Username),
		Password: hashed,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Infow("user registered", "user_id", user.ID)
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *authService) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// RefreshToken rotates a refresh token: a new pair is issued and the old
// refresh token goes on the revocation list until it would have expired.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokenManager.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	pair, err := s.issue(claims.UserID, claims.Username)
	if err != nil {
		return nil, err
	}
	if err := s.tokenManager.RevokeToken(ctx, refreshToken, 0); err != nil {
		s.log.Warnw("failed to revoke rotated refresh token", "user_id", claims.UserID, "error", err)
	}
	return pair, nil
}

// UpdateProfile changes the username and, given the current password, the password.
func (s *authService) UpdateProfile(ctx context.Context, id uint, req domain.UpdateProfileRequest) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Username != nil {
		user.Username = strings.TrimSpace(*req.Username)
	}
	if req.Password != nil {
		if err := checkPassword(user.Password, req.CurrentPassword); err != nil {
			return nil, domain.ErrInvalidCredentials
		}
		hashed, err := hashPassword(*req.Password, s.opts.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hashed
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) issue(userID uint, username string) (*domain.TokenPair, error) {
	access, refresh, err := s.tokenManager.GenerateToken(userID, username, s.opts.AccessTokenTTL, s.opts.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(s.opts.AccessTokenTTL),
	}, nil
}
