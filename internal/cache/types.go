package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common errors for cache operations
var (
	// ErrItemTooLarge is returned when an item exceeds the cache capacity
	ErrItemTooLarge = errors.New("item too large for cache")

	// ErrCacheCorrupted is returned when cache data is corrupted
	ErrCacheCorrupted = errors.New("cache data corrupted")
)

// Stats holds cache performance metrics
type Stats struct {
	Capacity  int64 // Maximum capacity in bytes
	Size      int64 // Current size on disk in bytes
	ItemCount int64
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64 // hits / (hits + misses)

	LastAccess time.Time
	LastEvict  time.Time
}

// Config holds configuration for a disk cache.
type Config struct {
	Dir              string // directory for cache files
	Capacity         int64  // bytes on disk
	CompressionLevel int    // zstd level (1-22), 0 disables compression
}

// DefaultConfig returns a configuration rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:              dir,
		Capacity:         50 * 1024 * 1024, // 50MB
		CompressionLevel: 3,
	}
}

// Key builds a cache key from the inputs that determine a narration.
func Key(text, voice string, rate int) string {
	data := fmt.Sprintf("%s|%s|%d", strings.TrimSpace(text), voice, rate)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
