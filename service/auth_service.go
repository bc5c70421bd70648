// file: service/auth_service.go

package service

import (
	"context"
	"errors"
	"fmt"
	"jwt-auth-api/logger"
	"jwt-auth-api/model"
	"jwt-auth-api/repository"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type LoginResult struct {
	Tokens TokenPair
	User   model.UserSummary
}

// AuthService runs login, refresh rotation, logout and request authentication.
type AuthService struct {
	users     repository.IUserRepository
	tokens    repository.IRefreshTokenRepository
	codec     *TokenCodec
	passwords CredentialVerifier
	now       func() time.Time
}

func NewAuthService(
	users repository.IUserRepository,
	tokens repository.IRefreshTokenRepository,
	codec *TokenCodec,
	passwords CredentialVerifier,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		codec:     codec,
		passwords: passwords,
		now:       codec.now,
	}
}

// Login checks the credentials and issues a token pair. The refresh record is
// persisted before anything is returned.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}
	if !s.passwords.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, _, err := s.codec.MintAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiresAt, err := s.issueRefresh(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	return &LoginResult{
		Tokens: TokenPair{
			AccessToken:      accessToken,
			RefreshToken:     refreshToken,
			RefreshExpiresAt: refreshExpiresAt,
		},
		User: user.Summary(),
	}, nil
}

// Refresh consumes a refresh token and returns a new pair. The old record is
// revoked before the replacement is minted and is not restored if a later step
// fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if typ, err := s.codec.ExtractType(claims); err != nil || typ != model.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}
	userID, err := s.codec.ExtractSubject(claims)
	if err != nil {
		return nil, err
	}

	record, err := s.tokens.FindByHash(ctx, HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, fmt.Errorf("could not look up refresh token: %w", err)
	}

	now := s.now()
	if record.Revoked() {
		logger.Log.WithFields(logrus.Fields{"user_id": userID, "record_id": record.ID}).
			Warn("Revoked refresh token presented")
		return nil, ErrRefreshRevoked
	}
	if !record.ExpiresAt.After(now) {
		return nil, ErrRefreshExpired
	}

	won, err := s.tokens.Revoke(ctx, record, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRefreshNotFound
		}
		return nil, fmt.Errorf("could not revoke refresh token: %w", err)
	}
	if !won {
		logger.Log.WithFields(logrus.Fields{"user_id": userID, "record_id": record.ID}).
			Warn("Concurrent refresh lost the revocation race")
		return nil, ErrRefreshRevoked
	}

	newRefresh, refreshExpiresAt, err := s.issueRefresh(ctx, userID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not look up user: %w", err)
	}
	accessToken, _, err := s.codec.MintAccess(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "revoked_id": record.ID}).Info("Refresh token rotated")
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     newRefresh,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Logout revokes the refresh token if the ledger knows it. It never fails.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if strings.TrimSpace(refreshToken) == "" {
		return
	}

	record, err := s.tokens.FindByHash(ctx, HashToken(refreshToken))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Log.WithError(err).Warn("Logout could not look up refresh token")
		}
		return
	}
	if record.Revoked() {
		return
	}

	if _, err := s.tokens.Revoke(ctx, record, s.now()); err != nil {
		logger.Log.WithError(err).WithField("record_id", record.ID).Warn("Logout could not revoke refresh token")
		return
	}
	logger.Log.WithField("user_id", record.UserID).Info("User logged out")
}

// Authenticate resolves the identity carried by an access token. Any failure,
// including a refresh token presented as a bearer credential, yields false.
func (s *AuthService) Authenticate(accessToken string) (model.Identity, bool) {
	if accessToken == "" {
		return model.Identity{}, false
	}

	token, err := s.codec.Decode(accessToken)
	if err != nil {
		return model.Identity{}, false
	}

	switch t := token.(type) {
	case AccessToken:
		return t.Identity(), true
	case RefreshToken:
		logger.Log.WithField("user_id", t.UserID).Debug("Refresh token used as bearer credential")
		return model.Identity{}, false
	default:
		return model.Identity{}, false
	}
}

func (s *AuthService) issueRefresh(ctx context.Context, userID int64) (string, time.Time, error) {
	token, expiresAt, err := s.codec.MintRefresh(userID)
	if err != nil {
		return "", time.Time{}, err
	}

	record := &model.RefreshTokenRecord{
		TokenHash: HashToken(token),
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Save(ctx, record); err != nil {
		return "", time.Time{}, fmt.Errorf("could not persist refresh token: %w", err)
	}
	return token, expiresAt, nil
}
