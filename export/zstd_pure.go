//go:build !cgo

package export

import (
	"fmt"
	"sync"

	"github.com/icrar/subtool/errs"
	"github.com/klauspost/compress/zstd"
)

var zstdEncoders = sync.Pool{New: func() any { return newZstdEncoder() }}
var zstdDecoders = sync.Pool{New: func() any { return newZstdDecoder() }}

// newZstdEncoder builds one ready-to-reuse encoder; klauspost/compress/zstd
// documents the encoder/decoder as allocation-free only after warmup, so
// subtool keeps a sync.Pool of them rather than building one per call.
func newZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderCRC(false))
	if err != nil {
		panic(fmt.Sprintf("export: building pooled zstd encoder: %v", err))
	}

	return enc
}

func newZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(false))
	if err != nil {
		panic(fmt.Sprintf("export: building pooled zstd decoder: %v", err))
	}

	return dec
}

func acquireZstdEncoder() *zstd.Encoder { return zstdEncoders.Get().(*zstd.Encoder) }
func releaseZstdEncoder(e *zstd.Encoder) { zstdEncoders.Put(e) }

func acquireZstdDecoder() *zstd.Decoder { return zstdDecoders.Get().(*zstd.Decoder) }
func releaseZstdDecoder(d *zstd.Decoder) { zstdDecoders.Put(d) }

func (ZstdCompressor) Compress(data []byte) ([]byte, error) {
	enc := acquireZstdEncoder()
	defer releaseZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}

func (ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec := acquireZstdDecoder()
	defer releaseZstdDecoder(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decompress: %v", errs.ErrInvalidFormat, err)
	}

	return out, nil
}
