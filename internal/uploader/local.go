package uploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Local copies files into a directory served by the HTTP layer. Meant for
// development setups without object storage.
type Local struct {
	dir     string
	baseURL string
	now     func() time.Time
}

var _ Uploader = (*Local)(nil)

// NewLocal creates dir if needed. Returned URLs are baseURL + "/" + key.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &Local{dir: dir, baseURL: baseURL, now: time.Now}, nil
}

func (l *Local) Upload(ctx context.Context, localPath string) (*Result, error) {
	if localPath == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", localPath, err)
	}
	defer func() { _ = src.Close() }()

	key := objectKey("", l.now().UTC(), localPath)
	dst := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create %q: %w", filepath.Dir(dst), err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return nil, fmt.Errorf("copy to %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close %q: %w", dst, err)
	}
	return &Result{URL: joinURL(l.baseURL, key)}, nil
}
