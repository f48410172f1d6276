package charts

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/coocood/freecache"
)

const (
	megabyte     = 1024 * 1024
	expireSecond = 60 * 60
)

// Cache memoizes rendered charts. Rendering is a pure function of its
// inputs, so entries are keyed by a hash of title and points.
type Cache struct {
	cache *freecache.Cache
	// OnLookup, if set, is called after every lookup.
	OnLookup func(hit bool)
}

func NewCache(sizeMB int) *Cache {
	return &Cache{cache: freecache.NewCache(sizeMB * megabyte)}
}

// Progress returns the chart for title and points, rendering it on a miss.
func (c *Cache) Progress(title string, points []Point) ([]byte, error) {
	key := cacheKey(title, points)
	if png, err := c.cache.Get(key); err == nil {
		c.observe(true)
		return png, nil
	}
	c.observe(false)

	png, err := RenderProgress(title, points)
	if err != nil {
		return nil, err
	}
	// Too-large entries are simply not cached.
	_ = c.cache.Set(key, png, expireSecond)
	return png, nil
}

func (c *Cache) observe(hit bool) {
	if c.OnLookup != nil {
		c.OnLookup(hit)
	}
}

func cacheKey(title string, points []Point) []byte {
	h := sha256.New()
	h.Write([]byte(title))
	var buf [9]byte
	for _, pt := range points {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(pt.Weight))
		buf[8] = 0
		if pt.Passed {
			buf[8] = 1
		}
		h.Write(buf[:])
	}
	return h.Sum(nil)
}
