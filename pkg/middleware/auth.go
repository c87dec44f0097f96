// Package middleware holds the gin middleware in front of the API handlers.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"videotube/pkg/apperr"
	"videotube/pkg/auth"
	"videotube/pkg/models"
	"videotube/pkg/revocation"
	"videotube/pkg/store"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	userKey   = "videotube.user"
	claimsKey = "videotube.claims"
)

type AccessVerifier interface {
	VerifyAccess(raw string) (auth.AccessClaims, error)
}

type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// VerifyJWT authenticates the request from the access_token cookie or a
// Bearer header and attaches the user and token claims to the context.
// Failures are pushed onto c.Errors and the chain is aborted.
func VerifyJWT(tokens AccessVerifier, users UserLoader, deny revocation.List) gin.HandlerFunc {
	if deny == nil {
		deny = revocation.Noop{}
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		claims, err := tokens.VerifyAccess(AccessToken(c))
		if err != nil {
			abort(c, err)
			return
		}

		revoked, err := deny.IsRevoked(ctx, claims.Id)
		if err != nil {
			abort(c, apperr.Internal(err, "Something went wrong while verifying access token"))
			return
		}
		if revoked {
			abort(c, apperr.Unauthorized("Invalid access token: token has been revoked"))
			return
		}

		u, err := users.GetUserByID(ctx, claims.UserID)
		if errors.Is(err, store.ErrNotFound) {
			abort(c, apperr.Unauthorized("Invalid access token"))
			return
		}
		if err != nil {
			abort(c, apperr.Internal(err, "Something went wrong while verifying access token"))
			return
		}

		c.Set(userKey, u)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// AccessToken returns the raw access token of the request, cookie first.
func AccessToken(c *gin.Context) string {
	if v, err := c.Cookie(AccessCookie); err == nil && v != "" {
		return v
	}
	h := c.GetHeader("Authorization")
	if len(h) > len("Bearer ") && strings.EqualFold(h[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

// CurrentUser returns the user attached by VerifyJWT.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}

func CurrentClaims(c *gin.Context) (auth.AccessClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return auth.AccessClaims{}, false
	}
	claims, ok := v.(auth.AccessClaims)
	return claims, ok
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
