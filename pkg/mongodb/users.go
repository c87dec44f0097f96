package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"videotube/pkg/models"
	"videotube/pkg/store"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts
	if u.WatchHistory == nil {
		u.WatchHistory = []string{}
	}
	_, err := s.users.InsertOne(ctx, u)
	return translate(err, "create user")
}

func (s *Store) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id}, "get user by id")
}

func (s *Store) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	var or bson.A
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return models.User{}, fmt.Errorf("find user: %w", store.ErrNotFound)
	}
	return s.findUser(ctx, bson.M{"$or": or}, "find user")
}

func (s *Store) findUser(ctx context.Context, filter bson.M, op string) (models.User, error) {
	var u models.User
	if err := s.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return models.User{}, translate(err, op)
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []string{}
	}
	return u, nil
}

// UpdateRefreshToken sets the token, or unsets the field when token is empty.
func (s *Store) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	update := bson.M{"$set": bson.M{"refreshToken": token}}
	if token == "" {
		update = bson.M{"$unset": bson.M{"refreshToken": ""}}
	}
	return s.updateOne(ctx, userID, update, "update refresh token")
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	return s.updateOne(ctx, userID, bson.M{"$set": bson.M{"password": hash}}, "update password")
}

func (s *Store) updateOne(ctx context.Context, userID string, update bson.M, op string) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return translate(err, op)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error) {
	set := bson.M{"updatedAt": now()}
	if upd.FullName != nil {
		set["fullName"] = *upd.FullName
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.CoverImage != nil {
		set["coverImage"] = *upd.CoverImage
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		return models.User{}, translate(err, "update user")
	}
	if u.WatchHistory == nil {
		u.WatchHistory = []string{}
	}
	return u, nil
}
