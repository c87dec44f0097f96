package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"videotube/pkg/models"
)

// ChannelProfile counts both directions of the subscription relation for the
// channel named username. Read-only.
func (s *Store) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		return models.ChannelProfile{}, translate(err, "channel profile")
	}

	profile := models.ChannelProfile{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}

	subs := db.Model(&models.Subscription{})
	if err := subs.Where("channel_id = ?", u.ID).Count(&profile.SubscriberCount).Error; err != nil {
		return models.ChannelProfile{}, translate(err, "count subscribers")
	}
	if err := subs.Where("subscriber_id = ?", u.ID).Count(&profile.ChannelSubscribedTo).Error; err != nil {
		return models.ChannelProfile{}, translate(err, "count subscriptions")
	}

	if viewerID != "" {
		var n int64
		err := subs.Where("channel_id = ? AND subscriber_id = ?", u.ID, viewerID).Count(&n).Error
		if err != nil {
			return models.ChannelProfile{}, translate(err, "subscription status")
		}
		profile.IsSubscribed = n > 0
	}

	return profile, nil
}

func (s *Store) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}

	subscribed := false
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", channelID).First(&models.User{}).Error; err != nil {
			return translate(err, "toggle subscription: channel")
		}

		var existing models.Subscription
		err := tx.Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).First(&existing).Error
		switch {
		case err == nil:
			return translate(tx.Delete(&existing).Error, "unsubscribe")
		case gorm.IsRecordNotFoundError(err):
			subscribed = true
			return translate(tx.Create(&models.Subscription{
				ID:           uuid.NewString(),
				SubscriberID: subscriberID,
				ChannelID:    channelID,
			}).Error, "subscribe")
		default:
			return translate(err, "toggle subscription")
		}
	})
	if err != nil {
		return false, err
	}
	return subscribed, nil
}

// WatchHistory resolves the user's history entries into videos with their
// owners, oldest first. Videos deleted since they were watched are skipped.
func (s *Store) WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	if err := db.Where("id = ?", userID).First(&models.User{}).Error; err != nil {
		return nil, translate(err, "watch history")
	}

	var entries []models.WatchHistoryEntry
	if err := db.Where("user_id = ?", userID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, translate(err, "watch history entries")
	}
	history := make([]models.WatchedVideo, 0, len(entries))
	if len(entries) == 0 {
		return history, nil
	}

	videoIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		videoIDs = append(videoIDs, e.VideoID)
	}
	var videos []models.Video
	if err := db.Where("id IN (?)", videoIDs).Find(&videos).Error; err != nil {
		return nil, translate(err, "watch history videos")
	}
	byID := make(map[string]models.Video, len(videos))
	ownerIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
		ownerIDs = append(ownerIDs, v.OwnerID)
	}

	var owners []models.User
	if err := db.Where("id IN (?)", ownerIDs).Find(&owners).Error; err != nil {
		return nil, translate(err, "watch history owners")
	}
	ownerByID := make(map[string]models.Owner, len(owners))
	for _, o := range owners {
		ownerByID[o.ID] = models.Owner{ID: o.ID, Username: o.Username, FullName: o.FullName, Avatar: o.Avatar}
	}

	for _, e := range entries {
		v, ok := byID[e.VideoID]
		if !ok {
			continue
		}
		history = append(history, models.WatchedVideo{Video: v, Owner: ownerByID[v.OwnerID]})
	}
	return history, nil
}
