package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"videotube/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgUploadTooLarge = "Uploaded file is too large"

// limitBody caps the request body of multipart routes.
func (h *Handler) limitBody(c *gin.Context) {
	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}
	c.Next()
}

// parseMultipart reads the form once. A body over the limit is answered with
// 413 and false; any other parse failure leaves the form empty so the
// service reports the missing fields.
func (h *Handler) parseMultipart(c *gin.Context) bool {
	_, err := c.MultipartForm()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.respondError(c, "upload_too_large", models.NewAPIError(http.StatusRequestEntityTooLarge, msgUploadTooLarge, err),
			"limit", tooLarge.Limit)
		return false
	}
	return true
}

// stageUpload copies the multipart file field into the temp dir and returns
// its path, or "" when the field is absent. Callers remove the file with
// discardStaged.
func (h *Handler) stageUpload(c *gin.Context, field string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", nil
	}

	if err := os.MkdirAll(h.opts.TmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	dst := filepath.Join(h.opts.TmpDir, uuid.NewString()+filepath.Ext(fh.Filename))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", fmt.Errorf("stage %s upload: %w", field, err)
	}
	return dst, nil
}

func (h *Handler) discardStaged(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.log.Warnw("upload_cleanup_failed", "path", p, "err", err)
		}
	}
}
