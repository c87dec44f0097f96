// Package mongodb is the document Credential Store. Users carry their watch
// history inline; profile and history views are computed with aggregation
// pipelines.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"videotube/pkg/store"
)

const (
	usersCollection         = "users"
	subscriptionsCollection = "subscriptions"
	videosCollection        = "videos"
	defaultDBName           = "videotube"
)

type Store struct {
	client        *mongodriver.Client
	users         *mongodriver.Collection
	subscriptions *mongodriver.Collection
	videos        *mongodriver.Collection
}

var _ store.Store = (*Store)(nil)

// New connects, pings and ensures indexes. The caller owns the handle and
// must Close it.
func New(ctx context.Context, uri, dbName string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}
	if dbName == "" {
		dbName = defaultDBName
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := cli.Database(dbName)
	s := &Store{
		client:        cli,
		users:         db.Collection(usersCollection),
		subscriptions: db.Collection(subscriptionsCollection),
		videos:        db.Collection(videosCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ensureIndexes backs the uniqueness of usernames, emails and subscription
// edges. Concurrent registrations rely on these, not on lookups.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("username_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure user indexes: %w", err)
	}

	_, err = s.subscriptions.Indexes().CreateMany(ctx, []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetName("subscriber_channel_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "channel", Value: 1}},
			Options: options.Index().SetName("channel"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure subscription indexes: %w", err)
	}

	_, err = s.videos.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("owner_created_desc"),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure video indexes: %w", err)
	}
	return nil
}

func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	if mongodriver.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// now returns the current time at the millisecond precision mongo stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
