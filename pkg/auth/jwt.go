package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"videotube/pkg/apperr"
	"videotube/pkg/models"
	"videotube/pkg/store"
)

// AccessClaims identify the user on every authenticated request.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.StandardClaims
}

// RefreshClaims only carry the identity; the token itself is checked against
// the value stored on the user.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.StandardClaims
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// UserStore is what the token service needs from the credential store.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, token string) error
}

// TokenService issues and verifies access/refresh token pairs. Only one
// refresh token per user is valid at a time: issuing a pair overwrites the
// stored one.
type TokenService struct {
	cfg   Config
	users UserStore
}

func NewTokenService(cfg Config, users UserStore) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: access and refresh token secrets are required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{cfg: cfg, users: users}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.cfg.AccessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

// IssueTokenPair signs a new pair for userID and stores the refresh token on
// the user, invalidating the previous one.
func (s *TokenService) IssueTokenPair(ctx context.Context, userID string) (TokenPair, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, apperr.NotFound("User does not exist")
	}
	if err != nil {
		return TokenPair{}, apperr.Internal(err, "Something went wrong while generating refresh and access token")
	}

	now := time.Now()
	pair := TokenPair{
		AccessExpiresAt:  now.Add(s.cfg.AccessTTL),
		RefreshExpiresAt: now.Add(s.cfg.RefreshTTL),
	}

	pair.AccessToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: pair.AccessExpiresAt.Unix(),
		},
	}).SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return TokenPair{}, apperr.Internal(err, "Something went wrong while generating refresh and access token")
	}

	pair.RefreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		UserID: u.ID,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   u.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: pair.RefreshExpiresAt.Unix(),
		},
	}).SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return TokenPair{}, apperr.Internal(err, "Something went wrong while generating refresh and access token")
	}

	if err := s.users.UpdateRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, apperr.Internal(err, "Something went wrong while generating refresh and access token")
	}
	return pair, nil
}

// VerifyAccess checks signature and expiry of an access token. It does not
// touch the store.
func (s *TokenService) VerifyAccess(raw string) (AccessClaims, error) {
	if raw == "" {
		return AccessClaims{}, apperr.Unauthorized("Unauthorized request")
	}
	var claims AccessClaims
	if err := parse(raw, s.cfg.AccessSecret, &claims); err != nil {
		return AccessClaims{}, apperr.Unauthorized("Invalid access token: " + err.Error())
	}
	if claims.UserID == "" {
		return AccessClaims{}, apperr.Unauthorized("Invalid access token")
	}
	return claims, nil
}

// VerifyRefresh returns the user id of a refresh token that is both validly
// signed and equal to the token currently stored for that user. A token that
// was rotated out or cleared by logout fails here.
func (s *TokenService) VerifyRefresh(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", apperr.Unauthorized("Unauthorized request")
	}
	var claims RefreshClaims
	if err := parse(raw, s.cfg.RefreshSecret, &claims); err != nil {
		return "", apperr.Unauthorized("Invalid refresh token: " + err.Error())
	}

	u, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return "", apperr.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return "", apperr.Internal(err, "Something went wrong while verifying refresh token")
	}
	if u.RefreshToken == "" || u.RefreshToken != raw {
		return "", apperr.Unauthorized("Refresh token is expired or used")
	}
	return u.ID, nil
}

// Revoke clears the stored refresh token so no outstanding one verifies.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	err := s.users.UpdateRefreshToken(ctx, userID, "")
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("User does not exist")
	}
	if err != nil {
		return apperr.Internal(err, "Something went wrong while logging out")
	}
	return nil
}

func parse(raw, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return errors.New("token is expired")
		}
		return errors.New("token is malformed or has an invalid signature")
	}
	if !token.Valid {
		return errors.New("token is not valid")
	}
	return nil
}
