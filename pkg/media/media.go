// Package media uploads user images to object storage and returns their
// public URL. Uploads take a path to a locally spooled file, which is removed
// once the attempt is over.
package media

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type Options struct {
	Driver        string
	Region        string
	Bucket        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

func New(ctx context.Context, opts Options) (Uploader, error) {
	switch opts.Driver {
	case "", DriverS3:
		return NewS3Uploader(opts)
	case DriverMinio:
		return NewMinioUploader(ctx, opts)
	default:
		return nil, fmt.Errorf("media: unknown driver %q", opts.Driver)
	}
}

// objectKey names an upload <folder>/<uuid><ext>, keeping the extension so
// the content type survives. Images and videos get their own folders.
func objectKey(localPath string) string {
	folder := "files"
	switch ct := contentType(localPath); {
	case strings.HasPrefix(ct, "image/"):
		folder = "images"
	case strings.HasPrefix(ct, "video/"):
		folder = "videos"
	}
	return path.Join(folder, uuid.NewString()+strings.ToLower(filepath.Ext(localPath)))
}

// videoTypes backs up the mime table, which lacks video types on minimal
// systems.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
