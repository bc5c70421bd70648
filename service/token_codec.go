// file: service/token_codec.go

package service

import (
	"errors"
	"fmt"
	"jwt-auth-api/logger"
	"jwt-auth-api/model"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretLength = 32

type TokenCodecConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// TokenMeta holds the fields shared by both token kinds.
type TokenMeta struct {
	ID        string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Token is a decoded, verified token: either AccessToken or RefreshToken.
type Token interface {
	Type() model.TokenType
	Meta() TokenMeta
}

type AccessToken struct {
	TokenMeta
	Email string
	Role  model.Role
}

func (AccessToken) Type() model.TokenType { return model.TokenTypeAccess }
func (t AccessToken) Meta() TokenMeta     { return t.TokenMeta }

// Identity returns the request identity carried by the token.
func (t AccessToken) Identity() model.Identity {
	return model.Identity{UserID: t.UserID, Email: t.Email, Role: t.Role}
}

type RefreshToken struct {
	TokenMeta
}

func (RefreshToken) Type() model.TokenType { return model.TokenTypeRefresh }
func (t RefreshToken) Meta() TokenMeta     { return t.TokenMeta }

// TokenCodec mints and verifies HS256 signed access and refresh tokens.
type TokenCodec struct {
	cfg    TokenCodecConfig
	now    func() time.Time
	parser *jwt.Parser
}

func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", minSecretLength)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}

	c := &TokenCodec{cfg: cfg, now: cfg.Now}
	if c.now == nil {
		c.now = time.Now
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	)
	return c, nil
}

// MintAccess returns a signed ACCESS token for the user and its expiry.
func (c *TokenCodec) MintAccess(userID int64, email string, role model.Role) (string, time.Time, error) {
	claims := c.newClaims(userID, model.TokenTypeAccess, c.cfg.AccessTTL)
	claims.Email = email
	claims.Role = role
	return c.sign(claims)
}

// MintRefresh returns a signed REFRESH token and its expiry. Refresh tokens
// carry no profile claims.
func (c *TokenCodec) MintRefresh(userID int64) (string, time.Time, error) {
	return c.sign(c.newClaims(userID, model.TokenTypeRefresh, c.cfg.RefreshTTL))
}

func (c *TokenCodec) newClaims(userID int64, typ model.TokenType, ttl time.Duration) *model.AppClaims {
	now := c.now()
	return &model.AppClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

func (c *TokenCodec) sign(claims *model.AppClaims) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.cfg.Secret)
	if err != nil {
		logger.Log.WithError(err).WithField("subject", claims.Subject).Error("Failed to sign JWT")
		return "", time.Time{}, fmt.Errorf("failed to sign token string: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, algorithm, issuer and expiry. Every failure is
// reported as ErrInvalidToken.
func (c *TokenCodec) Verify(tokenString string) (*model.AppClaims, error) {
	claims := &model.AppClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.cfg.Secret, nil
	})
	if err != nil || !token.Valid {
		logger.Log.WithError(err).Debug("Token verification failed")
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) ExtractType(claims *model.AppClaims) (model.TokenType, error) {
	switch claims.Type {
	case model.TokenTypeAccess, model.TokenTypeRefresh:
		return claims.Type, nil
	default:
		return "", ErrInvalidTokenType
	}
}

func (c *TokenCodec) ExtractSubject(claims *model.AppClaims) (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidSubject
	}
	return id, nil
}

func (c *TokenCodec) ExtractRole(claims *model.AppClaims) (model.Role, error) {
	if !claims.Role.Valid() {
		return "", ErrMissingRole
	}
	return claims.Role, nil
}

// Decode verifies tokenString and returns the matching Token variant.
func (c *TokenCodec) Decode(tokenString string) (Token, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	typ, err := c.ExtractType(claims)
	if err != nil {
		return nil, err
	}
	userID, err := c.ExtractSubject(claims)
	if err != nil {
		return nil, err
	}

	meta := TokenMeta{
		ID:        claims.ID,
		UserID:    userID,
		IssuedAt:  numericTime(claims.IssuedAt),
		ExpiresAt: numericTime(claims.ExpiresAt),
	}

	switch typ {
	case model.TokenTypeAccess:
		role, err := c.ExtractRole(claims)
		if err != nil {
			return nil, err
		}
		return AccessToken{TokenMeta: meta, Email: claims.Email, Role: role}, nil
	default:
		return RefreshToken{TokenMeta: meta}, nil
	}
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
