package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioUploader struct {
	client        *mclient.Client
	bucket        string
	publicBaseURL string
}

// NewMinioUploader connects to a MinIO endpoint and fails fast when the
// bucket is missing. The endpoint may carry a scheme; https enables TLS.
func NewMinioUploader(ctx context.Context, opts Options) (*MinioUploader, error) {
	const op = "media/minio"

	endpoint := opts.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, opts.Bucket)
	}

	base := opts.PublicBaseURL
	if base == "" {
		scheme := "http"
		if secure {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, endpoint, opts.Bucket)
	}

	return &MinioUploader{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
	}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	key := objectKey(localPath)
	_, err := u.client.FPutObject(ctx, u.bucket, key, localPath, mclient.PutObjectOptions{
		ContentType: contentType(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("media/minio: upload %s: %w", key, err)
	}
	return u.publicBaseURL + "/" + key, nil
}
