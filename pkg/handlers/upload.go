package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// spool saves the multipart file in field to a fresh temporary directory and
// returns its path. A missing file yields an empty path and no error. The
// returned cleanup removes the directory and is safe to call in any case.
func (h *Handler) spool(c *gin.Context, field string) (string, func(), error) {
	noop := func() {}

	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", noop, nil
	}
	if err != nil {
		return "", noop, fmt.Errorf("read %s: %w", field, err)
	}

	if h.uploadDir != "" {
		if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
			return "", noop, fmt.Errorf("create upload dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(h.uploadDir, "upload-")
	if err != nil {
		return "", noop, fmt.Errorf("create spool dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	dst := filepath.Join(dir, field+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("save %s: %w", field, err)
	}
	return dst, cleanup, nil
}
