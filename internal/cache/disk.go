package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	fileExt = ".cache"

	// First byte of every cache file.
	markRaw        = 'r'
	markCompressed = 'z'

	// Payloads smaller than this are stored uncompressed.
	compressThreshold = 1024
)

// DiskCache is a size-bounded cache of byte payloads stored one file per
// entry. The index is rebuilt from the directory on open, so no separate
// index file can go stale. Least recently used entries are evicted first.
type DiskCache struct {
	dir      string
	capacity int64
	size     int64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	index map[string]*diskEntry // by file name

	mu    sync.Mutex
	stats Stats
}

type diskEntry struct {
	path       string
	size       int64
	lastAccess time.Time
}

// NewDiskCache opens or creates a disk cache.
func NewDiskCache(cfg Config) (*DiskCache, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if cfg.Capacity <= 0 {
		return nil, errors.New("cache capacity must be positive")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dc := &DiskCache{
		dir:      cfg.Dir,
		capacity: cfg.Capacity,
		index:    make(map[string]*diskEntry),
		stats:    Stats{Capacity: cfg.Capacity},
	}

	if cfg.CompressionLevel > 0 {
		var err error
		dc.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(cfg.CompressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// The decoder is always available so entries written with compression
	// stay readable after compression is turned off.
	var err error
	dc.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := dc.scan(); err != nil {
		return nil, err
	}
	return dc, nil
}

// Get retrieves a payload.
func (dc *DiskCache) Get(key string) ([]byte, bool) {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	name := fileName(key)
	entry, ok := dc.index[name]
	if !ok {
		dc.stats.Misses++
		return nil, false
	}

	data, err := dc.read(entry.path)
	if err != nil {
		// Missing or unreadable file: drop it.
		dc.removeLocked(name)
		dc.stats.Misses++
		return nil, false
	}

	now := time.Now()
	entry.lastAccess = now
	_ = os.Chtimes(entry.path, now, now)
	dc.stats.Hits++
	dc.stats.LastAccess = now
	return data, true
}

// Put stores a payload, evicting least recently used entries as needed.
func (dc *DiskCache) Put(key string, value []byte) error {
	if len(value) == 0 {
		return errors.New("cannot cache empty payload")
	}

	payload := append([]byte{markRaw}, value...)
	if dc.encoder != nil && len(value) > compressThreshold {
		compressed := dc.encoder.EncodeAll(value, []byte{markCompressed})
		if len(compressed) < len(payload) {
			payload = compressed
		}
	}
	size := int64(len(payload))
	if size > dc.capacity {
		return ErrItemTooLarge
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	name := fileName(key)
	if _, ok := dc.index[name]; ok {
		dc.removeLocked(name)
	}
	for dc.size+size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldestLocked()
	}

	path := filepath.Join(dc.dir, name)
	if err := writeFile(path, payload); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	dc.index[name] = &diskEntry{path: path, size: size, lastAccess: time.Now()}
	dc.size += size
	return nil
}

// Delete removes an entry.
func (dc *DiskCache) Delete(key string) error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.removeLocked(fileName(key))
	return nil
}

// Clear removes all entries.
func (dc *DiskCache) Clear() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	var errs []error
	for name, entry := range dc.index {
		if err := os.Remove(entry.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		delete(dc.index, name)
	}
	dc.size = 0
	return errors.Join(errs...)
}

// Contains checks if a key exists without updating access time.
func (dc *DiskCache) Contains(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.index[fileName(key)]
	return ok
}

// Size returns the current size on disk in bytes.
func (dc *DiskCache) Size() int64 {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.size
}

// Stats returns cache statistics.
func (dc *DiskCache) Stats() Stats {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	stats := dc.stats
	stats.Size = dc.size
	stats.ItemCount = int64(len(dc.index))
	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}
	return stats
}

// Close releases the zstd coders.
func (dc *DiskCache) Close() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.encoder != nil {
		_ = dc.encoder.Close()
	}
	dc.decoder.Close()
	return nil
}

func (dc *DiskCache) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 {
		return nil, ErrCacheCorrupted
	}
	switch data[0] {
	case markRaw:
		return data[1:], nil
	case markCompressed:
		out, err := dc.decoder.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheCorrupted, err)
		}
		return out, nil
	default:
		return nil, ErrCacheCorrupted
	}
}

// scan rebuilds the index from the directory and trims it to capacity.
// Leftover temp files from interrupted writes are removed.
func (dc *DiskCache) scan() error {
	entries, err := os.ReadDir(dc.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dc.dir, e.Name())
		if strings.HasSuffix(e.Name(), ".tmp") {
			_ = os.Remove(path)
			continue
		}
		if !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dc.index[e.Name()] = &diskEntry{path: path, size: info.Size(), lastAccess: info.ModTime()}
		dc.size += info.Size()
	}
	for dc.size > dc.capacity && len(dc.index) > 0 {
		dc.evictOldestLocked()
	}
	return nil
}

func (dc *DiskCache) removeLocked(name string) {
	entry, ok := dc.index[name]
	if !ok {
		return
	}
	_ = os.Remove(entry.path)
	dc.size -= entry.size
	delete(dc.index, name)
}

func (dc *DiskCache) evictOldestLocked() {
	var oldest string
	var oldestTime time.Time
	for name, entry := range dc.index {
		if oldest == "" || entry.lastAccess.Before(oldestTime) {
			oldest = name
			oldestTime = entry.lastAccess
		}
	}
	if oldest != "" {
		dc.removeLocked(oldest)
		dc.stats.Evictions++
		dc.stats.LastEvict = time.Now()
	}
}

func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + fileExt
}

// writeFile writes to a temp file first, then renames it into place.
func writeFile(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil { //nolint:gosec
		_ = os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}
