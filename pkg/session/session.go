// Package session runs the account flows: register, login, logout, token
// refresh and the profile mutations of an authenticated user.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"videotube/pkg/apperr"
	"videotube/pkg/auth"
	"videotube/pkg/media"
	"videotube/pkg/models"
	"videotube/pkg/store"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, hash string) error
	UpdateUser(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error)
}

type Tokens interface {
	IssueTokenPair(ctx context.Context, userID string) (auth.TokenPair, error)
	VerifyRefresh(ctx context.Context, raw string) (string, error)
	Revoke(ctx context.Context, userID string) error
}

type RegisterInput struct {
	FullName       string `validate:"required"`
	Email          string `validate:"required,email"`
	Username       string `validate:"required"`
	Password       string `validate:"required"`
	AvatarPath     string
	CoverImagePath string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type LoginResult struct {
	User   models.User
	Tokens auth.TokenPair
}

type UpdateAccountInput struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
}

type Service struct {
	users    UserStore
	tokens   Tokens
	hasher   auth.Hasher
	uploader media.Uploader
	v        *validator.Validate
	log      *zap.Logger
}

func NewService(users UserStore, tokens Tokens, hasher auth.Hasher, uploader media.Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		uploader: uploader,
		v:        validator.New(),
		log:      log,
	}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	if strings.TrimSpace(in.Password) == "" {
		in.Password = ""
	}

	if err := s.validate(in, "All fields are required"); err != nil {
		return models.User{}, err
	}

	_, err := s.users.FindUserByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil:
		return models.User{}, apperr.Conflict("User with email or username already exists")
	case !errors.Is(err, store.ErrNotFound):
		return models.User{}, apperr.Internal(err, "Something went wrong while registering the user")
	}

	if in.AvatarPath == "" {
		return models.User{}, apperr.Validation("Avatar file is required")
	}
	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		s.log.Warn("avatar upload failed", zap.String("username", in.Username), zap.Error(err))
		return models.User{}, apperr.Validation("Avatar file is required")
	}

	var coverURL string
	if in.CoverImagePath != "" {
		coverURL, err = s.uploader.Upload(ctx, in.CoverImagePath)
		if err != nil {
			s.log.Warn("cover image upload failed", zap.String("username", in.Username), zap.Error(err))
			coverURL = ""
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal(err, "Something went wrong while registering the user")
	}

	u := models.User{
		FullName:   in.FullName,
		Email:      in.Email,
		Username:   in.Username,
		Password:   hash,
		Avatar:     avatarURL,
		CoverImage: coverURL,
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, apperr.Conflict("User with email or username already exists")
		}
		return models.User{}, apperr.Internal(err, "Something went wrong while registering the user")
	}

	created, err := s.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return models.User{}, apperr.Internal(err, "Something went wrong while registering the user")
	}
	s.log.Info("user registered", zap.String("user_id", created.ID), zap.String("username", created.Username))
	return created, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" && email == "" {
		return LoginResult{}, apperr.Validation("username or email is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		return LoginResult{}, apperr.Validation("password is required")
	}

	u, err := s.users.FindUserByUsernameOrEmail(ctx, username, email)
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, apperr.NotFound("User does not exist")
	}
	if err != nil {
		return LoginResult{}, apperr.Internal(err, "Something went wrong while logging in")
	}

	ok, err := s.hasher.Compare(u.Password, in.Password)
	if err != nil {
		return LoginResult{}, apperr.Internal(err, "Something went wrong while logging in")
	}
	if !ok {
		return LoginResult{}, apperr.Unauthorized("Invalid user credentials")
	}

	pair, err := s.tokens.IssueTokenPair(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	loggedIn, err := s.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return LoginResult{}, apperr.Internal(err, "Something went wrong while logging in")
	}
	s.log.Info("user logged in", zap.String("user_id", u.ID))
	return LoginResult{User: loggedIn, Tokens: pair}, nil
}

// Logout clears the stored refresh token of userID.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return err
	}
	s.log.Info("user logged out", zap.String("user_id", userID))
	return nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// stops verifying once the new one is stored.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return auth.TokenPair{}, apperr.Validation("Unauthorized request: refresh token is required")
	}

	userID, err := s.tokens.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	return s.tokens.IssueTokenPair(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return apperr.Validation("Old password and new password are required")
	}

	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Compare(u.Password, oldPassword)
	if err != nil {
		return apperr.Internal(err, "Something went wrong while changing password")
	}
	if !ok {
		return apperr.Unauthorized("Invalid old password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal(err, "Something went wrong while changing password")
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return apperr.Internal(err, "Something went wrong while changing password")
	}
	s.log.Info("password changed", zap.String("user_id", u.ID))
	return nil
}

func (s *Service) ChangeAvatar(ctx context.Context, userID, localPath string) (models.User, error) {
	url, err := s.uploadImage(ctx, localPath, "Avatar file is missing", "Error while uploading avatar")
	if err != nil {
		return models.User{}, err
	}
	return s.update(ctx, userID, models.UserUpdate{Avatar: &url})
}

func (s *Service) ChangeCover(ctx context.Context, userID, localPath string) (models.User, error) {
	url, err := s.uploadImage(ctx, localPath, "Cover image file is missing", "Error while uploading cover image")
	if err != nil {
		return models.User{}, err
	}
	return s.update(ctx, userID, models.UserUpdate{CoverImage: &url})
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	return s.user(ctx, userID)
}

// UpdateAccount replaces the full name and email of userID.
func (s *Service) UpdateAccount(ctx context.Context, userID string, in UpdateAccountInput) (models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate(in, "All fields are required"); err != nil {
		return models.User{}, err
	}
	return s.update(ctx, userID, models.UserUpdate{FullName: &in.FullName, Email: &in.Email})
}

func (s *Service) uploadImage(ctx context.Context, localPath, missingMsg, failedMsg string) (string, error) {
	if localPath == "" {
		return "", apperr.Validation(missingMsg)
	}
	url, err := s.uploader.Upload(ctx, localPath)
	if err != nil || url == "" {
		s.log.Warn("image upload failed", zap.Error(err))
		return "", apperr.Validation(failedMsg)
	}
	return url, nil
}

func (s *Service) update(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error) {
	u, err := s.users.UpdateUser(ctx, userID, upd)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.User{}, apperr.NotFound("User does not exist")
	case errors.Is(err, store.ErrDuplicate):
		return models.User{}, apperr.Conflict("User with email or username already exists")
	case err != nil:
		return models.User{}, apperr.Internal(err, "Something went wrong while updating the user")
	}
	return u, nil
}

func (s *Service) user(ctx context.Context, userID string) (models.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.NotFound("User does not exist")
	}
	if err != nil {
		return models.User{}, apperr.Internal(err, "Something went wrong while loading the user")
	}
	return u, nil
}

// validate runs the struct tags on in. A missing field reports requiredMsg;
// anything else reports the first offending field.
func (s *Service) validate(in any, requiredMsg string) error {
	err := s.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err, "Something went wrong while validating input")
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return apperr.Validation(requiredMsg)
		}
	}
	fe := verrs[0]
	if fe.Tag() == "email" {
		return apperr.Validation("Invalid email address")
	}
	return apperr.Validation("Invalid " + strings.ToLower(fe.Field()))
}
