// Package cache provides a persistent, size-bounded disk cache for
// synthesized narration, compressed with zstd.
package cache
