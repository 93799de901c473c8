// Package hash provides the string hash cache.BlockCache uses to bucket
// its string cache keys.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of data. It is used only for in-memory cache
// bucketing, never for on-disk subfile content, and carries no format
// stability guarantee across versions.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}
