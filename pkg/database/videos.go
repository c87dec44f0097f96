package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"videotube/pkg/models"
)

func (s *Store) CreateVideo(ctx context.Context, v *models.Video) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return translate(db.Create(v).Error, "create video")
}

func (s *Store) GetVideo(ctx context.Context, id string) (models.Video, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return models.Video{}, err
	}
	var v models.Video
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return models.Video{}, translate(err, "get video")
	}
	return v, nil
}

func (s *Store) VideosByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	videos := []models.Video{}
	if err := db.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&videos).Error; err != nil {
		return nil, translate(err, "videos by owner")
	}
	return videos, nil
}

func (s *Store) RecordView(ctx context.Context, userID, videoID string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).Where("id = ?", videoID).UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return translate(res.Error, "record view")
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "record view")
		}

		err := tx.Where("user_id = ? AND video_id = ?", userID, videoID).Delete(&models.WatchHistoryEntry{}).Error
		if err != nil {
			return translate(err, "record view: trim history")
		}
		entry := models.WatchHistoryEntry{UserID: userID, VideoID: videoID}
		return translate(tx.Create(&entry).Error, "record view: append history")
	})
}
