package export

import (
	"errors"
	"fmt"
	"sync"

	"github.com/icrar/subtool/errs"
	"github.com/pierrec/lz4/v4"
)

// LZ4Compressor is the `--compress=lz4` codec: fastest of the four to
// decompress, at a lower ratio than S2Compressor or ZstdCompressor —
// the pick when a dump will be read back often.
type LZ4Compressor struct{}

var _ Codec = LZ4Compressor{}

var lz4Compressors = sync.Pool{New: func() any { return &lz4.Compressor{} }}

func acquireLZ4Compressor() *lz4.Compressor  { return lz4Compressors.Get().(*lz4.Compressor) }
func releaseLZ4Compressor(c *lz4.Compressor) { lz4Compressors.Put(c) }

func (LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	c := acquireLZ4Compressor()
	defer releaseLZ4Compressor(c)

	n, err := c.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 compress: %v", errs.ErrInvalidFormat, err)
	}

	return dst[:n], nil
}

// lz4GrowthStart and lz4MaxBuffer bound the guess-and-grow loop below:
// lz4 block decoding needs its destination sized up front, and subtool
// dumps carry no stored uncompressed-size header, so Decompress must
// retry into a bigger buffer until one fits.
const (
	lz4GrowthStart = 4
	lz4MaxBuffer   = 128 * 1024 * 1024
)

func (LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	for bufSize := len(data) * lz4GrowthStart; bufSize <= lz4MaxBuffer; bufSize *= 2 {
		buf := make([]byte, bufSize)

		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}

		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, fmt.Errorf("%w: lz4 decompress: %v", errs.ErrInvalidFormat, err)
		}
	}

	return nil, fmt.Errorf("%w: lz4 decompress: output exceeds %d bytes", errs.ErrInvalidFormat, lz4MaxBuffer)
}
