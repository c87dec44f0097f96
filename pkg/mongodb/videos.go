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

func (s *Store) CreateVideo(ctx context.Context, v *models.Video) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	ts := now()
	v.CreatedAt, v.UpdatedAt = ts, ts
	_, err := s.videos.InsertOne(ctx, v)
	return translate(err, "create video")
}

func (s *Store) GetVideo(ctx context.Context, id string) (models.Video, error) {
	var v models.Video
	if err := s.videos.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		return models.Video{}, translate(err, "get video")
	}
	return v, nil
}

func (s *Store) VideosByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.videos.Find(ctx, bson.M{"owner": ownerID}, opts)
	if err != nil {
		return nil, translate(err, "videos by owner")
	}
	videos := []models.Video{}
	if err := cur.All(ctx, &videos); err != nil {
		return nil, translate(err, "videos by owner decode")
	}
	return videos, nil
}

// RecordView bumps the counter, then moves videoID to the end of the user's
// watchHistory. $pull and $push cannot target the same field in one update.
func (s *Store) RecordView(ctx context.Context, userID, videoID string) error {
	res, err := s.videos.UpdateOne(ctx, bson.M{"_id": videoID}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return translate(err, "record view")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("record view: %w", store.ErrNotFound)
	}

	if err := s.updateOne(ctx, userID, bson.M{"$pull": bson.M{"watchHistory": videoID}}, "record view: trim history"); err != nil {
		return err
	}
	return s.updateOne(ctx, userID, bson.M{"$push": bson.M{"watchHistory": videoID}}, "record view: append history")
}
