package imagepkg

import (
	"image"
	"sync"
)

// MemoryCache maps card ids to decoded full-resolution art. Entries are
// never mutated after insertion and are shared by concurrent resizes.
// Nothing expires; Clear and Delete are the only evictions.
type MemoryCache struct {
	m sync.Map
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(cardID int) (image.Image, bool) {
	if v, ok := c.m.Load(cardID); ok {
		if img, ok := v.(image.Image); ok {
			return img, true
		}
	}
	return nil, false
}

// Set stores img for cardID. Two goroutines missing on the same card may
// both fetch and Set; the last write wins and both values are equivalent.
func (c *MemoryCache) Set(cardID int, img image.Image) {
	if img == nil {
		return
	}
	c.m.Store(cardID, img)
}

func (c *MemoryCache) Delete(cardID int) {
	c.m.Delete(cardID)
}

func (c *MemoryCache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.m.Range(func(k, _ any) bool {
		c.m.Delete(k)
		return true
	})
}
