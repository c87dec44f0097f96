package videos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/pkg/apperr"
	"videotube/pkg/database"
	"videotube/pkg/models"
)

type fakeUploader struct {
	fail map[string]bool
}

func (f fakeUploader) Upload(_ context.Context, localPath string) (string, error) {
	if f.fail[localPath] {
		return "", errors.New("upload failed")
	}
	return "https://cdn.example.com/" + localPath, nil
}

func newTestService(t *testing.T, up fakeUploader) (*Service, *database.Store, models.User) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	owner := models.User{Username: "owner", Email: "owner@example.com", FullName: "Owner", Avatar: "a", Password: "p"}
	require.NoError(t, db.CreateUser(context.Background(), &owner))
	return NewService(db, up, nil), db, owner
}

func TestPublish(t *testing.T) {
	svc, _, owner := newTestService(t, fakeUploader{})

	v, err := svc.Publish(context.Background(), owner.ID, PublishInput{
		Title:         " First ",
		Description:   "hello",
		Duration:      12.5,
		VideoPath:     "clip.mp4",
		ThumbnailPath: "thumb.png",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "First", v.Title)
	assert.Equal(t, "https://cdn.example.com/clip.mp4", v.VideoFile)
	assert.Equal(t, "https://cdn.example.com/thumb.png", v.Thumbnail)
	assert.Equal(t, owner.ID, v.OwnerID)
	assert.True(t, v.IsPublished)
}

func TestPublish_Validation(t *testing.T) {
	svc, _, owner := newTestService(t, fakeUploader{})
	ctx := context.Background()

	tests := []struct {
		name string
		in   PublishInput
	}{
		{"no title", PublishInput{Description: "d", VideoPath: "v.mp4"}},
		{"no description", PublishInput{Title: "t", VideoPath: "v.mp4"}},
		{"no file", PublishInput{Title: "t", Description: "d"}},
		{"negative duration", PublishInput{Title: "t", Description: "d", VideoPath: "v.mp4", Duration: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Publish(ctx, owner.ID, tt.in)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestPublish_UploadFailures(t *testing.T) {
	svc, _, owner := newTestService(t, fakeUploader{fail: map[string]bool{"bad.mp4": true, "bad.png": true}})
	ctx := context.Background()

	_, err := svc.Publish(ctx, owner.ID, PublishInput{Title: "t", Description: "d", VideoPath: "bad.mp4"})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	v, err := svc.Publish(ctx, owner.ID, PublishInput{Title: "t", Description: "d", VideoPath: "ok.mp4", ThumbnailPath: "bad.png"})
	require.NoError(t, err)
	assert.Empty(t, v.Thumbnail)
}

func TestListByOwner(t *testing.T) {
	svc, _, owner := newTestService(t, fakeUploader{})
	ctx := context.Background()

	videos, err := svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, videos)

	_, err = svc.Publish(ctx, owner.ID, PublishInput{Title: "old", Description: "d", VideoPath: "a.mp4"})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = svc.Publish(ctx, owner.ID, PublishInput{Title: "new", Description: "d", VideoPath: "b.mp4"})
	require.NoError(t, err)

	videos, err = svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "new", videos[0].Title)
}

func TestWatch(t *testing.T) {
	svc, db, owner := newTestService(t, fakeUploader{})
	ctx := context.Background()

	a, err := svc.Publish(ctx, owner.ID, PublishInput{Title: "a", Description: "d", VideoPath: "a.mp4"})
	require.NoError(t, err)
	b, err := svc.Publish(ctx, owner.ID, PublishInput{Title: "b", Description: "d", VideoPath: "b.mp4"})
	require.NoError(t, err)

	_, err = svc.Watch(ctx, owner.ID, a.ID)
	require.NoError(t, err)
	_, err = svc.Watch(ctx, owner.ID, b.ID)
	require.NoError(t, err)
	watched, err := svc.Watch(ctx, owner.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), watched.Views)

	u, err := db.GetUserByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, u.WatchHistory)

	_, err = svc.Watch(ctx, owner.ID, "ghost")
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.Watch(ctx, owner.ID, " ")
	assert.True(t, apperr.IsValidation(err))
}
