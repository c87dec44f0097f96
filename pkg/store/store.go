// Package store holds the backend-neutral persistence contract. pkg/database
// (gorm) and pkg/mongodb implement it; services depend on narrower
// interfaces of their own.
package store

import (
	"context"
	"errors"

	"videotube/pkg/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	// FindUserByUsernameOrEmail matches either field; empty arguments are ignored.
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	// UpdateRefreshToken writes only the refresh token column. An empty token clears it.
	UpdateRefreshToken(ctx context.Context, userID, token string) error
	UpdatePassword(ctx context.Context, userID, hash string) error
	UpdateUser(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error)

	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
	// ToggleSubscription removes the edge if present, creates it otherwise,
	// and reports whether the subscriber is subscribed afterwards.
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)

	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (models.Video, error)
	VideosByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	// RecordView increments the view counter and moves the video to the end
	// of the user's watch history.
	RecordView(ctx context.Context, userID, videoID string) error

	Close() error
}
