package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/xkilldash9x/sauce-e2e/internal/browser"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Capturer writes failure screenshots to Dir.
type Capturer struct {
	Dir string

	now      func() time.Time
	mkdirAll func(path string, perm os.FileMode) error
}

// NewCapturer returns a Capturer writing under dir.
func NewCapturer(dir string) *Capturer {
	return &Capturer{Dir: dir, now: time.Now, mkdirAll: os.MkdirAll}
}

// Path returns the artifact path for name at instant ts.
func (c *Capturer) Path(name string, ts time.Time) string {
	name = unsafeFileChars.ReplaceAllString(name, "_")
	return filepath.Join(c.Dir, fmt.Sprintf("%d_%s.png", ts.UnixMilli(), name))
}

// Capture takes a full-page screenshot named after label, or after action
// when label is empty. A failure to create the directory is ignored; the
// screenshot call reports the real problem if there is one.
func (c *Capturer) Capture(ctx context.Context, page browser.Page, action, label string) (string, error) {
	name := label
	if name == "" {
		name = action
	}
	_ = c.mkdirAll(c.Dir, 0o755)

	path := c.Path(name, c.now())
	if err := page.Screenshot(ctx, path, true); err != nil {
		return "", fmt.Errorf("failed to capture screenshot %s: %w", path, err)
	}
	return path, nil
}
