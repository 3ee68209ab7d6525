package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"conference-checkin/internal/domain"
	"conference-checkin/internal/domain/model"
	"conference-checkin/internal/domain/ports/adapter"
)

var _ adapter.Camera = (*DirCamera)(nil)

// DirCamera treats a directory of snapshots as a camera: each NextFrame
// returns the most recently modified image not read yet. Tools such as
// fswebcam can keep dropping new snapshots, or rewrite one file in a loop,
// while the scan runs. A snapshot is identified by name, mtime and size, so a
// rewritten file counts as a new frame. Once a frame is read, older unread
// snapshots are skipped. Read state is shared by every device the camera opens.
type DirCamera struct {
	Dir string

	mu   sync.Mutex
	seen map[snapshotKey]bool
}

type snapshotKey struct {
	name string
	mod  time.Time
	size int64
}

func NewDirCamera(dir string) *DirCamera {
	return &DirCamera{Dir: dir, seen: make(map[snapshotKey]bool)}
}

func (c *DirCamera) Open(ctx context.Context) (adapter.CaptureDevice, error) {
	st, err := os.Stat(c.Dir)
	switch {
	case errors.Is(err, os.ErrPermission):
		return nil, fmt.Errorf("%s: %w", c.Dir, domain.ErrCaptureDenied)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", c.Dir, domain.ErrCaptureUnavailable)
	case !st.IsDir():
		return nil, fmt.Errorf("%s is not a directory: %w", c.Dir, domain.ErrCaptureUnavailable)
	}
	return &dirDevice{cam: c}, nil
}

type dirDevice struct {
	cam    *DirCamera
	closed bool
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

func (d *dirDevice) NextFrame(ctx context.Context) (model.Frame, error) {
	c := d.cam
	c.mu.Lock()
	defer c.mu.Unlock()
	if d.closed {
		return model.Frame{}, errDeviceClosed
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return model.Frame{}, fmt.Errorf("read %s: %w", c.Dir, err)
	}
	var (
		unread []snapshotKey
		newest snapshotKey
	)
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed since ReadDir
			continue
		}
		k := snapshotKey{name: e.Name(), mod: info.ModTime(), size: info.Size()}
		if c.seen[k] {
			continue
		}
		unread = append(unread, k)
		if len(unread) == 1 || k.mod.After(newest.mod) || (k.mod.Equal(newest.mod) && k.name > newest.name) {
			newest = k
		}
	}
	if len(unread) == 0 {
		return model.Frame{}, domain.ErrNoFrame
	}

	data, err := os.ReadFile(filepath.Join(c.Dir, newest.name))
	if errors.Is(err, os.ErrNotExist) {
		return model.Frame{}, domain.ErrNoFrame
	}
	if err != nil {
		return model.Frame{}, fmt.Errorf("read %s: %w", newest.name, err)
	}
	f, err := DecodeFrame(data)
	if err != nil {
		// Likely still being written; it is retried until it decodes or changes.
		return model.Frame{}, domain.ErrNoFrame
	}

	for _, k := range unread {
		if !k.mod.After(newest.mod) {
			c.seen[k] = true
		}
	}
	return f, nil
}

func (d *dirDevice) Close() error {
	d.cam.mu.Lock()
	d.closed = true
	d.cam.mu.Unlock()
	return nil
}
