package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"videotube/pkg/models"
	"videotube/pkg/store"
)

// channelProfilePipeline joins the subscription edges on both sides of the
// channel and projects the public profile.
func channelProfilePipeline(username, viewerID string) mongodriver.Pipeline {
	return mongodriver.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         subscriptionsCollection,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         subscriptionsCollection,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscriberCount":     bson.M{"$size": "$subscribers"},
			"channelSubscribedTo": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{"$cond": bson.M{
				"if":   bson.M{"$in": bson.A{viewerID, "$subscribers.subscriber"}},
				"then": true,
				"else": false,
			}},
		}}},
		{{Key: "$project", Value: bson.M{
			"username":            1,
			"fullName":            1,
			"avatar":              1,
			"coverImage":          1,
			"subscriberCount":     1,
			"channelSubscribedTo": 1,
			"isSubscribed":        1,
		}}},
	}
}

func (s *Store) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	cur, err := s.users.Aggregate(ctx, channelProfilePipeline(username, viewerID))
	if err != nil {
		return models.ChannelProfile{}, translate(err, "channel profile")
	}
	var profiles []models.ChannelProfile
	if err := cur.All(ctx, &profiles); err != nil {
		return models.ChannelProfile{}, translate(err, "channel profile decode")
	}
	if len(profiles) == 0 {
		return models.ChannelProfile{}, fmt.Errorf("channel profile: %w", store.ErrNotFound)
	}
	return profiles[0], nil
}

// ToggleSubscription deletes the edge if it exists and inserts it otherwise.
// A duplicate-key error on insert means a concurrent request subscribed first.
func (s *Store) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if err := s.users.FindOne(ctx, bson.M{"_id": channelID}).Err(); err != nil {
		return false, translate(err, "toggle subscription: channel")
	}

	filter := bson.M{"subscriber": subscriberID, "channel": channelID}
	res, err := s.subscriptions.DeleteOne(ctx, filter)
	if err != nil {
		return false, translate(err, "unsubscribe")
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	ts := now()
	_, err = s.subscriptions.InsertOne(ctx, models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
	if err != nil && !mongodriver.IsDuplicateKeyError(err) {
		return false, translate(err, "subscribe")
	}
	return true, nil
}

func watchHistoryPipeline(userID string) mongodriver.Pipeline {
	return mongodriver.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         videosCollection,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "history",
			"pipeline": bson.A{
				bson.M{"$lookup": bson.M{
					"from":         usersCollection,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "ownerInfo",
					"pipeline": bson.A{
						bson.M{"$project": bson.M{"username": 1, "fullName": 1, "avatar": 1}},
					},
				}},
				bson.M{"$addFields": bson.M{"ownerInfo": bson.M{"$first": "$ownerInfo"}}},
			},
		}}},
		{{Key: "$project", Value: bson.M{"watchHistory": 1, "history": 1}}},
	}
}

// WatchHistory returns the watched videos with owner identity. $lookup does
// not keep the order of the local array, so the result is re-sorted by the
// user's watchHistory sequence.
func (s *Store) WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	cur, err := s.users.Aggregate(ctx, watchHistoryPipeline(userID))
	if err != nil {
		return nil, translate(err, "watch history")
	}
	var rows []struct {
		WatchHistory []string              `bson:"watchHistory"`
		History      []models.WatchedVideo `bson:"history"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, translate(err, "watch history decode")
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("watch history: %w", store.ErrNotFound)
	}

	byID := make(map[string]models.WatchedVideo, len(rows[0].History))
	for _, v := range rows[0].History {
		byID[v.ID] = v
	}
	history := make([]models.WatchedVideo, 0, len(rows[0].WatchHistory))
	for _, id := range rows[0].WatchHistory {
		if v, ok := byID[id]; ok {
			history = append(history, v)
		}
	}
	return history, nil
}
