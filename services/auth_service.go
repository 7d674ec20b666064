package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zemen-restaurant/zemen-backend/apperrors"
	"github.com/zemen-restaurant/zemen-backend/auth"
	"github.com/zemen-restaurant/zemen-backend/models"
	"github.com/zemen-restaurant/zemen-backend/payloads"
	"gorm.io/gorm"
)

// dummyHash is compared against when the username does not exist so a
// failed login takes the same time either way.
var dummyHash, _ = auth.HashPassword("zemen-unknown-user")

type AuthService struct {
	db      *gorm.DB
	tokens  *auth.TokenManager
	revoker *auth.Revoker
	log     *logrus.Logger
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenManager, revoker *auth.Revoker, log *logrus.Logger) *AuthService {
	return &AuthService{db: db, tokens: tokens, revoker: revoker, log: log}
}

func (s *AuthService) Login(ctx context.Context, req payloads.LoginRequest) (*payloads.LoginResponse, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if err != nil {
		auth.CheckPassword(dummyHash, req.Password)
		s.log.WithField("username", req.Username).Warn("Login attempt for unknown user")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		s.log.WithField("username", req.Username).Warn("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to sign token: %w", err))
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User logged in")
	return &payloads.LoginResponse{
		Token:     token,
		Username:  user.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate verifies a bearer token and rejects tokens revoked by logout.
// The admin flag is taken from the user row, not the token, so a demoted or
// removed account loses access before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.ErrUnauthorized.WithMessage("Invalid token.")
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to check token revocation: %w", err))
	}
	if revoked {
		return nil, apperrors.ErrUnauthorized.WithMessage("Invalid token.")
	}

	var user models.User
	err = s.db.WithContext(ctx).Select("id", "is_admin").First(&user, claims.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrUnauthorized.WithMessage("Invalid token.")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to load token user: %w", err))
	}
	claims.IsAdmin = user.IsAdmin
	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		return apperrors.Internal(fmt.Errorf("failed to revoke token: %w", err))
	}
	s.log.WithFields(logrus.Fields{"user_id": claims.UserID, "username": claims.Username}).Info("User logged out")
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// the account was removed after the token was issued
		return nil, apperrors.ErrUnauthorized.WithMessage("Invalid token.")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to load profile: %w", err))
	}
	return &user, nil
}
