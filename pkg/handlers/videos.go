package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"videotube/pkg/apperr"
	"videotube/pkg/middleware"
	"videotube/pkg/videos"
)

func (h *Handler) PublishVideo(c *gin.Context) {
	videoPath, cleanVideo, err := h.spool(c, "videoFile")
	defer cleanVideo()
	if err != nil {
		fail(c, apperr.Validation("Video file not found in form data"))
		return
	}
	thumbPath, cleanThumb, err := h.spool(c, "thumbnail")
	defer cleanThumb()
	if err != nil {
		h.log.Warn("thumbnail spool failed", zap.Error(err))
		thumbPath = ""
	}

	var duration float64
	if raw := strings.TrimSpace(c.PostForm("duration")); raw != "" {
		duration, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			fail(c, apperr.Validation("Invalid duration"))
			return
		}
	}

	u, _ := middleware.CurrentUser(c)
	v, err := h.videos.Publish(c.Request.Context(), u.ID, videos.PublishInput{
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		Duration:      duration,
		VideoPath:     videoPath,
		ThumbnailPath: thumbPath,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, v, "Video published successfully")
}

// ListVideos lists the videos of ?owner=<id>, or the caller's own.
func (h *Handler) ListVideos(c *gin.Context) {
	ownerID := c.Query("owner")
	if ownerID == "" {
		u, _ := middleware.CurrentUser(c)
		ownerID = u.ID
	}
	list, err := h.videos.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list, "Videos fetched successfully")
}

func (h *Handler) WatchVideo(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)
	v, err := h.videos.Watch(c.Request.Context(), u.ID, c.Param("videoId"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, v, "Video view recorded")
}
