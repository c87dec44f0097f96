package media

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Uploader struct {
	uploader *s3manager.Uploader
	bucket   string
}

// NewS3Uploader builds an uploader on the default AWS credential chain.
// Endpoint and static keys are only needed for S3-compatible services.
func NewS3Uploader(opts Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("media/s3: bucket is required")
	}
	cfg := &aws.Config{
		Region: aws.String(opts.Region),
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if opts.AccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("media/s3: session: %w", err)
	}
	return &S3Uploader{
		uploader: s3manager.NewUploader(sess),
		bucket:   opts.Bucket,
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("media/s3: open %s: %w", localPath, err)
	}
	defer file.Close()

	key := objectKey(localPath)
	result, err := u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("media/s3: upload %s: %w", key, err)
	}
	return result.Location, nil
}
