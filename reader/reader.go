// Package reader implements the cached, positional read path every
// other engine (repoint, remap, resample, loader, writer passthrough)
// uses to pull sections, blocks, lines and margin samples out of an
// open subfile.
package reader

import (
	"fmt"
	"io"
	"os"

	"github.com/icrar/subtool/cache"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/metadata"
)

// Reader wraps an open subfile handle, its derived geometry and a block
// cache. It holds no other state: every read is a (key, position,
// length) lookup that either hits the cache or issues a positional
// read and populates it.
type Reader struct {
	file  *os.File
	meta  metadata.Metadata
	cache *cache.BlockCache
}

// New creates a Reader over file, using meta for section/block geometry
// and c to cache reads. Passing a nil cache disables caching.
func New(file *os.File, meta metadata.Metadata, c *cache.BlockCache) *Reader {
	if c == nil {
		c = cache.New(0)
	}

	return &Reader{file: file, meta: meta, cache: c}
}

// Metadata returns the geometry this Reader was constructed with.
func (r *Reader) Metadata() metadata.Metadata { return r.meta }

// read is the shared cache-or-fetch primitive: a cache hit under key
// returns immediately; a miss issues a positional read of length bytes
// at position, validates the full length was read, caches it under key
// and returns it.
func (r *Reader) read(key string, position, length int64) ([]byte, error) {
	if buf, ok := r.cache.Get(key); ok {
		return buf, nil
	}

	buf := make([]byte, length)

	n, err := r.file.ReadAt(buf, position)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading %q at %d: %v", errs.ErrIoFailure, key, position, err)
	}

	if int64(n) != length {
		return nil, fmt.Errorf("%w: short read of %q: got %d bytes, wanted %d", errs.ErrIoFailure, key, n, length)
	}

	r.cache.Add(key, buf)

	return buf, nil
}

// ReadSection reads one of the five named subfile sections in full.
func (r *Reader) ReadSection(s format.Section) ([]byte, error) {
	if !r.meta.HasSection(s) {
		return nil, fmt.Errorf("%w: section %v", errs.ErrMissingResource, s)
	}

	offset, err := r.meta.SectionOffset(s)
	if err != nil {
		return nil, err
	}

	length, err := r.meta.SectionLength(s)
	if err != nil {
		return nil, err
	}

	return r.read(s.String(), offset, length)
}

// ReadBlock reads block idx (1..BlocksPerSub; 0 denotes the preamble
// block right after the header, holding dt/udpmap/margin).
func (r *Reader) ReadBlock(idx int64) ([]byte, error) {
	if idx < 0 || idx > r.meta.BlocksPerSub {
		return nil, fmt.Errorf("%w: block %d out of range [0, %d]", errs.ErrOutOfRange, idx, r.meta.BlocksPerSub)
	}

	offset := r.meta.BlockOffset(idx)

	return r.read(fmt.Sprintf("block-%d", idx), offset, r.meta.BlockLength)
}

// ReadBlockOrNull reads block idx, returning (nil, nil) instead of an
// out-of-range error for idx outside [1, BlocksPerSub] — the shape
// repoint's sliding window needs at the subfile's edges, where "next"
// or "prev" legitimately does not exist.
func (r *Reader) ReadBlockOrNull(idx int64) ([]byte, error) {
	if idx < 1 || idx > r.meta.BlocksPerSub {
		return nil, nil
	}

	return r.ReadBlock(idx)
}

// ReadLine returns source srcIdx's line within block idx.
func (r *Reader) ReadLine(idx, srcIdx int64) ([]byte, error) {
	block, err := r.ReadBlock(idx)
	if err != nil {
		return nil, err
	}

	off := r.meta.LineOffset(srcIdx)
	if off+r.meta.SubLineSize > int64(len(block)) {
		return nil, fmt.Errorf("%w: source %d line exceeds block bounds", errs.ErrOutOfRange, srcIdx)
	}

	return block[off : off+r.meta.SubLineSize], nil
}

// marginHalfBytes is the byte length of one source's head (or tail)
// margin half.
func (r *Reader) marginHalfBytes() int64 {
	return r.meta.MarginSamples * metadata.BytesPerSample
}

// ReadMarginLine returns source srcIdx's head or tail margin half:
// MarginSamples samples (2*MarginSamples bytes), laid out per source as
// [head][tail] within the margin section.
func (r *Reader) ReadMarginLine(srcIdx int64, head bool) ([]byte, error) {
	margin, err := r.ReadSection(format.SectionMargin)
	if err != nil {
		return nil, err
	}

	half := r.marginHalfBytes()
	srcStart := srcIdx * half * 2

	off := srcStart
	if !head {
		off += half
	}

	if off+half > int64(len(margin)) {
		return nil, fmt.Errorf("%w: source %d margin exceeds section bounds", errs.ErrOutOfRange, srcIdx)
	}

	return margin[off : off+half], nil
}
