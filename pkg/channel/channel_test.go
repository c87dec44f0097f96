package channel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/pkg/apperr"
	"videotube/pkg/database"
	"videotube/pkg/models"
)

func newTestService(t *testing.T) (*Service, *database.Store) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, nil), db
}

func createUser(t *testing.T, db *database.Store, username string) models.User {
	t.Helper()
	u := models.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: "User " + username,
		Avatar:   "https://cdn.example.com/" + username + ".png",
		Password: "hash",
	}
	require.NoError(t, db.CreateUser(context.Background(), &u))
	return u
}

func TestProfile(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	chris := createUser(t, db, "chris")
	viewer := createUser(t, db, "viewer")
	other := createUser(t, db, "other")

	_, err := svc.ToggleSubscription(ctx, viewer.ID, chris.ID)
	require.NoError(t, err)
	_, err = svc.ToggleSubscription(ctx, other.ID, chris.ID)
	require.NoError(t, err)
	_, err = svc.ToggleSubscription(ctx, chris.ID, other.ID)
	require.NoError(t, err)

	p, err := svc.Profile(ctx, "  Chris ", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, chris.ID, p.ID)
	assert.Equal(t, int64(2), p.SubscriberCount)
	assert.Equal(t, int64(1), p.ChannelSubscribedTo)
	assert.True(t, p.IsSubscribed)

	p, err = svc.Profile(ctx, "chris", chris.ID)
	require.NoError(t, err)
	assert.False(t, p.IsSubscribed)

	p, err = svc.Profile(ctx, "viewer", "")
	require.NoError(t, err)
	assert.Zero(t, p.SubscriberCount)
	assert.Equal(t, int64(1), p.ChannelSubscribedTo)
	assert.False(t, p.IsSubscribed)
}

func TestProfile_IsReadOnly(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	chris := createUser(t, db, "chris")
	viewer := createUser(t, db, "viewer")

	first, err := svc.Profile(ctx, "chris", viewer.ID)
	require.NoError(t, err)
	second, err := svc.Profile(ctx, "chris", viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	after, err := db.GetUserByID(ctx, chris.ID)
	require.NoError(t, err)
	assert.Equal(t, chris.UpdatedAt.Unix(), after.UpdatedAt.Unix())
}

func TestProfile_Errors(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Profile(context.Background(), "   ", "")
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "username is missing", apperr.Message(err))

	_, err = svc.Profile(context.Background(), "ghost", "")
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "channel does not exist", apperr.Message(err))
}

func TestToggleSubscription(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	subscribed, err := svc.ToggleSubscription(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	subscribed, err = svc.ToggleSubscription(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)

	_, err = svc.ToggleSubscription(ctx, a.ID, a.ID)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.ToggleSubscription(ctx, a.ID, "")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.ToggleSubscription(ctx, a.ID, "ghost")
	assert.True(t, apperr.IsNotFound(err))
}

func TestWatchHistory(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	viewer := createUser(t, db, "viewer")

	history, err := svc.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	v1 := models.Video{Title: "one", VideoFile: "f1", OwnerID: owner.ID}
	v2 := models.Video{Title: "two", VideoFile: "f2", OwnerID: owner.ID}
	require.NoError(t, db.CreateVideo(ctx, &v1))
	require.NoError(t, db.CreateVideo(ctx, &v2))
	require.NoError(t, db.RecordView(ctx, viewer.ID, v1.ID))
	require.NoError(t, db.RecordView(ctx, viewer.ID, v2.ID))

	history, err = svc.WatchHistory(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Title)
	assert.Equal(t, "two", history[1].Title)
	assert.Equal(t, "owner", history[1].Owner.Username)

	_, err = svc.WatchHistory(ctx, "ghost")
	assert.True(t, apperr.IsNotFound(err))
}
