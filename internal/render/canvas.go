package render

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/starmap-generator/backend/internal/models"
)

// Canvas is the render target of one page. Every pass takes a generation
// token; only the pass holding the latest token may publish its bitmap.
type Canvas struct {
	generation atomic.Uint64

	mu        sync.RWMutex
	committed uint64
	img       image.Image
	result    *models.RenderResult
}

// NewCanvas returns an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{}
}

// Begin starts a new pass and returns its token. Any pass still in flight
// with an older token becomes stale.
func (c *Canvas) Begin() uint64 {
	return c.generation.Add(1)
}

// Current returns the newest token handed out.
func (c *Canvas) Current() uint64 {
	return c.generation.Load()
}

// Commit publishes img for gen. It reports false and keeps the previous
// bitmap when gen is no longer current.
func (c *Canvas) Commit(gen uint64, img image.Image, result *models.RenderResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation.Load() || gen <= c.committed {
		return false
	}
	c.committed = gen
	c.img = img
	c.result = result
	return true
}

// Committed returns the token of the published bitmap, 0 if none.
func (c *Canvas) Committed() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.committed
}

// Snapshot returns the last published bitmap and its result.
func (c *Canvas) Snapshot() (image.Image, *models.RenderResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.img == nil {
		return nil, nil, false
	}
	return c.img, c.result, true
}
