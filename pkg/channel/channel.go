// Package channel serves the public side of a user: the channel profile with
// its subscription counts, subscriptions themselves and the watch history.
package channel

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"videotube/pkg/apperr"
	"videotube/pkg/models"
	"videotube/pkg/store"
)

type Store interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
}

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(s Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, log: log}
}

// Profile looks up a channel by username as seen by viewerID. It never
// writes.
func (s *Service) Profile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperr.Validation("username is missing")
	}

	p, err := s.store.ChannelProfile(ctx, username, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		return models.ChannelProfile{}, apperr.NotFound("channel does not exist")
	}
	if err != nil {
		return models.ChannelProfile{}, apperr.Internal(err, "Something went wrong while fetching the channel")
	}
	return p, nil
}

// WatchHistory returns the videos userID watched, oldest first, each with its
// owner's public identity.
func (s *Service) WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	history, err := s.store.WatchHistory(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User does not exist")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Something went wrong while fetching watch history")
	}
	return history, nil
}

func (s *Service) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return false, apperr.Validation("channel id is missing")
	}
	if channelID == subscriberID {
		return false, apperr.Validation("You cannot subscribe to your own channel")
	}

	subscribed, err := s.store.ToggleSubscription(ctx, subscriberID, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return false, apperr.NotFound("channel does not exist")
	}
	if err != nil {
		return false, apperr.Internal(err, "Something went wrong while updating the subscription")
	}
	s.log.Info("subscription toggled",
		zap.String("subscriber_id", subscriberID),
		zap.String("channel_id", channelID),
		zap.Bool("subscribed", subscribed),
	)
	return subscribed, nil
}
