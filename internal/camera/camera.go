// Package camera provides the simulated plant camera: captures write fake
// image files into a local directory, with cleanup and listing helpers.
package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/ohrachov/plantmon/internal/errdefs"
)

// Camera simulates the capture device. Setup must be called before Capture.
type Camera struct {
	logger *slog.Logger
	dir    string
	now    func() time.Time

	mu          sync.Mutex
	initialized bool
}

// Config holds the configuration for the Camera.
type Config struct {
	Logger *slog.Logger
	// Dir is the directory captured images are written to.
	Dir string
	// Now defaults to time.Now. Overridable for tests.
	Now func() time.Time
}

// New creates a new Camera instance. The camera starts uninitialized.
func New(cfg *Config) (*Camera, error) {
	if cfg == nil {
		return nil, errors.New("camera config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Dir == "" {
		return nil, errors.New("image directory cannot be empty")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Camera{
		logger: cfg.Logger,
		dir:    cfg.Dir,
		now:    now,
	}, nil
}

// Setup initializes the simulated camera and creates the image directory.
func (c *Camera) Setup(_ context.Context) error {
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return errdefs.Provider("camera", err)
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.logger.Info("camera setup complete", "dir", c.dir)
	return nil
}

// Capture writes one simulated image and returns its path. Capturing before
// Setup fails with a not-initialized error.
func (c *Camera) Capture(_ context.Context) (string, error) {
	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()

	if !initialized {
		return "", errdefs.NotInitialized("camera")
	}

	stamp := c.now().Format("20060102_150405")
	name := fmt.Sprintf("plant_%s_%s.jpg", stamp, shortID())
	path := filepath.Join(c.dir, name)

	if err := os.WriteFile(path, []byte("Simulated image data.\n"), 0o640); err != nil {
		return "", errdefs.Provider("camera", err)
	}

	c.logger.Info("image captured", "path", path)
	return path, nil
}

// CleanupOlderThan deletes captured images older than the given age and
// returns how many were removed.
func (c *Camera) CleanupOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errdefs.Provider("camera", err)
	}

	cutoff := c.now().Add(-age)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
				c.logger.Warn("failed to delete old image", "name", entry.Name(), "error", err)
				continue
			}
			deleted++
		}
	}

	c.logger.Info("image cleanup complete", "deleted", deleted)
	return deleted, nil
}

// List returns the names of all captured images.
func (c *Camera) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errdefs.Provider("camera", err)
	}

	var images []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpg") {
			images = append(images, entry.Name())
		}
	}
	return images, nil
}

// shortID returns a compact unique suffix for image names.
func shortID() string {
	id := gofakeit.UUID()
	return strings.ReplaceAll(id, "-", "")[:8]
}
