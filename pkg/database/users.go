package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"

	"videotube/pkg/models"
	"videotube/pkg/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return translate(db.Create(u).Error, "create user")
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		return models.User{}, translate(err, "get user by id")
	}
	if err := s.loadWatchHistory(db, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return models.User{}, err
	}

	q := db
	switch {
	case username != "" && email != "":
		q = q.Where("username = ? OR email = ?", username, email)
	case username != "":
		q = q.Where("username = ?", username)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		return models.User{}, fmt.Errorf("find user: %w", store.ErrNotFound)
	}

	var u models.User
	if err := q.First(&u).Error; err != nil {
		return models.User{}, translate(err, "find user")
	}
	if err := s.loadWatchHistory(db, &u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	return s.updateColumn(ctx, userID, "refresh_token", token)
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	return s.updateColumn(ctx, userID, "password", hash)
}

// updateColumn writes one column without callbacks or timestamp handling.
func (s *Store) updateColumn(ctx context.Context, userID, column string, value interface{}) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.User{}).Where("id = ?", userID).UpdateColumn(column, value)
	if res.Error != nil {
		return translate(res.Error, "update "+column)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s: %w", column, store.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return models.User{}, err
	}

	var u models.User
	if err := db.Where("id = ?", userID).First(&u).Error; err != nil {
		return models.User{}, translate(err, "update user")
	}

	fields := map[string]interface{}{}
	if upd.FullName != nil {
		fields["full_name"] = *upd.FullName
	}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}
	if upd.Avatar != nil {
		fields["avatar"] = *upd.Avatar
	}
	if upd.CoverImage != nil {
		fields["cover_image"] = *upd.CoverImage
	}
	if len(fields) > 0 {
		if err := db.Model(&u).Updates(fields).Error; err != nil {
			return models.User{}, translate(err, "update user")
		}
	}

	return s.GetUserByID(ctx, userID)
}

func (s *Store) loadWatchHistory(db *gorm.DB, u *models.User) error {
	ids := []string{}
	err := db.Model(&models.WatchHistoryEntry{}).
		Where("user_id = ?", u.ID).
		Order("id asc").
		Pluck("video_id", &ids).Error
	if err != nil {
		return translate(err, "load watch history")
	}
	u.WatchHistory = ids
	return nil
}
