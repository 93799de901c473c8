//go:build nobuild

// Cgo-backed zstd, traded in for zstd_pure.go's pure-Go path with
// `-tags nobuild` where the extra throughput is worth the cgo
// dependency.
package export

import "github.com/valyala/gozstd"

const zstdCgoLevel = 3

func (ZstdCompressor) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, zstdCgoLevel), nil
}

func (ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
