// Package videos publishes uploaded videos, lists a channel's videos and
// records views into the viewer's watch history.
package videos

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"videotube/pkg/apperr"
	"videotube/pkg/media"
	"videotube/pkg/models"
	"videotube/pkg/store"
)

type Store interface {
	CreateVideo(ctx context.Context, v *models.Video) error
	GetVideo(ctx context.Context, id string) (models.Video, error)
	VideosByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	RecordView(ctx context.Context, userID, videoID string) error
}

type PublishInput struct {
	Title         string
	Description   string
	Duration      float64
	VideoPath     string
	ThumbnailPath string
}

type Service struct {
	store    Store
	uploader media.Uploader
	log      *zap.Logger
}

func NewService(s Store, uploader media.Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, uploader: uploader, log: log}
}

// Publish uploads the video file (and thumbnail, if any) and stores the
// video as published under ownerID.
func (s *Service) Publish(ctx context.Context, ownerID string, in PublishInput) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" || in.Description == "" {
		return models.Video{}, apperr.Validation("Title and description are required")
	}
	if in.VideoPath == "" {
		return models.Video{}, apperr.Validation("Video file is required")
	}
	if in.Duration < 0 {
		return models.Video{}, apperr.Validation("Invalid duration")
	}

	videoURL, err := s.uploader.Upload(ctx, in.VideoPath)
	if err != nil || videoURL == "" {
		s.log.Error("video upload failed", zap.String("owner_id", ownerID), zap.Error(err))
		return models.Video{}, apperr.Internal(err, "Failed to upload video file")
	}

	var thumbURL string
	if in.ThumbnailPath != "" {
		thumbURL, err = s.uploader.Upload(ctx, in.ThumbnailPath)
		if err != nil {
			s.log.Warn("thumbnail upload failed", zap.String("owner_id", ownerID), zap.Error(err))
			thumbURL = ""
		}
	}

	v := models.Video{
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Title:       in.Title,
		Description: in.Description,
		Duration:    in.Duration,
		IsPublished: true,
		OwnerID:     ownerID,
	}
	if err := s.store.CreateVideo(ctx, &v); err != nil {
		return models.Video{}, apperr.Internal(err, "Failed to save video information to the database")
	}
	s.log.Info("video published", zap.String("video_id", v.ID), zap.String("owner_id", ownerID))
	return v, nil
}

// ListByOwner returns ownerID's videos, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	videos, err := s.store.VideosByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch videos")
	}
	return videos, nil
}

// Watch counts a view of videoID by userID and moves the video to the end of
// the user's watch history.
func (s *Service) Watch(ctx context.Context, userID, videoID string) (models.Video, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return models.Video{}, apperr.Validation("video id is missing")
	}

	err := s.store.RecordView(ctx, userID, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Video{}, apperr.NotFound("Video does not exist")
	}
	if err != nil {
		return models.Video{}, apperr.Internal(err, "Failed to record view")
	}

	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return models.Video{}, apperr.Internal(err, "Failed to fetch video")
	}
	return v, nil
}
