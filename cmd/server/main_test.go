package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/cmd/config"
	"videotube/pkg/media"
	"videotube/pkg/models"
)

func TestMediaOptions(t *testing.T) {
	cfg := &config.Config{
		MediaDriver:    media.DriverS3,
		S3Bucket:       "bucket",
		AWSRegion:      "eu-west-1",
		MinioAccessKey: "key",
		MinioSecretKey: "secret",
	}
	opts := mediaOptions(cfg)
	assert.Empty(t, opts.Endpoint)
	assert.Empty(t, opts.AccessKey, "plain S3 uses the default credential chain")

	cfg.MediaDriver = media.DriverMinio
	cfg.MinioEndpoint = "http://minio:9000"
	opts = mediaOptions(cfg)
	assert.Equal(t, "http://minio:9000", opts.Endpoint)
	assert.Equal(t, "key", opts.AccessKey)
	assert.Equal(t, "secret", opts.SecretKey)
}

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{
		DatabaseDriver: "sqlite3",
		DatabaseDSN:    filepath.Join(t.TempDir(), "videotube.db"),
	}
	st, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	defer st.Close()

	u := models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice", Avatar: "a", Password: "p"}
	require.NoError(t, st.CreateUser(context.Background(), &u))
}

func TestOpenStore_MongoRequiresURI(t *testing.T) {
	_, err := openStore(context.Background(), &config.Config{DatabaseDriver: config.DriverMongo})
	assert.Error(t, err)
}
