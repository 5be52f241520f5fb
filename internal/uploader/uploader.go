// Package uploader moves staged files to media storage and reports where
// they can be fetched from.
package uploader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Result describes a hosted file.
type Result struct {
	URL string `json:"url"`
}

// Uploader stores the file at localPath. An empty localPath yields (nil, nil):
// there is nothing to upload, and callers decide whether that is fatal.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*Result, error)
}

// objectKey builds a date-partitioned, collision-free name keeping the source extension.
func objectKey(prefix string, now time.Time, localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	key := fmt.Sprintf("%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
