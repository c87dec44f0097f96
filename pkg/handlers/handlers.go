// Package handlers is the HTTP boundary: gin handlers, cookies, multipart
// spooling and the uniform response envelopes.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videotube/pkg/apperr"
	"videotube/pkg/auth"
	"videotube/pkg/middleware"
	"videotube/pkg/models"
	"videotube/pkg/revocation"
	"videotube/pkg/session"
	"videotube/pkg/videos"
)

type Sessions interface {
	Register(ctx context.Context, in session.RegisterInput) (models.User, error)
	Login(ctx context.Context, in session.LoginInput) (session.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ChangeAvatar(ctx context.Context, userID, localPath string) (models.User, error)
	ChangeCover(ctx context.Context, userID, localPath string) (models.User, error)
	CurrentUser(ctx context.Context, userID string) (models.User, error)
	UpdateAccount(ctx context.Context, userID string, in session.UpdateAccountInput) (models.User, error)
}

type Channels interface {
	Profile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
}

type Videos interface {
	Publish(ctx context.Context, ownerID string, in videos.PublishInput) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	Watch(ctx context.Context, userID, videoID string) (models.Video, error)
}

// Tokens is what the boundary needs from the token service: access-token
// verification for VerifyJWT and lifetimes for cookie Max-Age.
type Tokens interface {
	middleware.AccessVerifier
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

type Options struct {
	Sessions  Sessions
	Channels  Channels
	Videos    Videos
	Tokens    Tokens
	Users     middleware.UserLoader
	Deny      revocation.List
	Logger    *zap.Logger
	UploadDir string
}

type Handler struct {
	sessions  Sessions
	channels  Channels
	videos    Videos
	tokens    Tokens
	users     middleware.UserLoader
	deny      revocation.List
	log       *zap.Logger
	uploadDir string
}

func New(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Deny == nil {
		opts.Deny = revocation.Noop{}
	}
	return &Handler{
		sessions:  opts.Sessions,
		channels:  opts.Channels,
		videos:    opts.Videos,
		tokens:    opts.Tokens,
		users:     opts.Users,
		deny:      opts.Deny,
		log:       opts.Logger,
		uploadDir: opts.UploadDir,
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

func (h *Handler) Register(c *gin.Context) {
	avatar, cleanAvatar, err := h.spool(c, "avatar")
	defer cleanAvatar()
	if err != nil {
		fail(c, apperr.Validation("Avatar file is required"))
		return
	}
	cover, cleanCover, err := h.spool(c, "coverImage")
	defer cleanCover()
	if err != nil {
		h.log.Warn("cover image spool failed", zap.Error(err))
		cover = ""
	}

	u, err := h.sessions.Register(c.Request.Context(), session.RegisterInput{
		FullName:       c.PostForm("fullName"),
		Email:          c.PostForm("email"),
		Username:       c.PostForm("username"),
		Password:       c.PostForm("password"),
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, u, "User registered successfully")
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, apperr.Validation("Invalid request body"))
		return
	}

	res, err := h.sessions.Login(c.Request.Context(), session.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.setTokenCookies(c, res.Tokens)
	respond(c, http.StatusOK, loginResponse{
		User:         res.User,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout clears the stored refresh token and the cookies, and denies the
// presented access token for the rest of its lifetime.
func (h *Handler) Logout(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	if err := h.sessions.Logout(c.Request.Context(), u.ID); err != nil {
		fail(c, err)
		return
	}

	if claims, ok := middleware.CurrentClaims(c); ok && claims.Id != "" {
		exp := time.Unix(claims.ExpiresAt, 0)
		if err := h.deny.Revoke(c.Request.Context(), claims.Id, exp); err != nil {
			h.log.Warn("access token revocation failed", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	h.clearTokenCookies(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

func (h *Handler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(middleware.RefreshCookie)
	if token == "" {
		var req refreshRequest
		_ = c.ShouldBind(&req)
		token = req.RefreshToken
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		fail(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	respond(c, http.StatusOK, tokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, apperr.Validation("Invalid request body"))
		return
	}
	u, _ := middleware.CurrentUser(c)
	if err := h.sessions.ChangePassword(c.Request.Context(), u.ID, req.OldPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *Handler) ChangeAvatar(c *gin.Context) {
	h.changeImage(c, "avatar", h.sessions.ChangeAvatar, "Avatar image updated successfully")
}

func (h *Handler) ChangeCover(c *gin.Context) {
	h.changeImage(c, "coverImage", h.sessions.ChangeCover, "Cover image updated successfully")
}

func (h *Handler) changeImage(
	c *gin.Context,
	field string,
	change func(ctx context.Context, userID, localPath string) (models.User, error),
	message string,
) {
	path, cleanup, err := h.spool(c, field)
	defer cleanup()
	if err != nil {
		fail(c, apperr.Validation("Invalid "+field+" file"))
		return
	}

	u, _ := middleware.CurrentUser(c)
	updated, err := change(c.Request.Context(), u.ID, path)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, updated, message)
}

func (h *Handler) CurrentUser(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	current, err := h.sessions.CurrentUser(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, current, "User fetched successfully")
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, apperr.Validation("Invalid request body"))
		return
	}
	u, _ := middleware.CurrentUser(c)
	updated, err := h.sessions.UpdateAccount(c.Request.Context(), u.ID, session.UpdateAccountInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, updated, "Account details updated successfully")
}

func (h *Handler) ChannelProfile(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	profile, err := h.channels.Profile(c.Request.Context(), c.Param("username"), u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, profile, "User channel fetched successfully")
}

func (h *Handler) WatchHistory(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	history, err := h.channels.WatchHistory(c.Request.Context(), u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, history, "Watch history fetched successfully")
}

func (h *Handler) ToggleSubscription(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	subscribed, err := h.channels.ToggleSubscription(c.Request.Context(), u.ID, c.Param("channelId"))
	if err != nil {
		fail(c, err)
		return
	}
	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	respond(c, http.StatusOK, gin.H{"subscribed": subscribed}, message)
}

func (h *Handler) setTokenCookies(c *gin.Context, pair auth.TokenPair) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.AccessCookie, pair.AccessToken, int(h.tokens.AccessTTL().Seconds()), "/", "", true, true)
	c.SetCookie(middleware.RefreshCookie, pair.RefreshToken, int(h.tokens.RefreshTTL().Seconds()), "/", "", true, true)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(middleware.AccessCookie, "", -1, "/", "", true, true)
	c.SetCookie(middleware.RefreshCookie, "", -1, "/", "", true, true)
}
