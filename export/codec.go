package export

import (
	"fmt"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
)

// Compressor compresses one dump artifact's bytes in full (extracted
// blocks, delay-table/header dumps, or a whole data section — see
// doc.go) and returns the compressed result.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor using the same algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec is a named compression algorithm exposed through both
// directions at once, the shape GetCodec hands the dump command.
type Codec interface {
	Compressor
	Decompressor
}

// CompressionStats summarises one compress call, for a caller that
// wants to report the outcome (the dump command currently does not;
// this mirrors cache.Stats — an observability
// handle rather than a value anything here consumes internally).
type CompressionStats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// Ratio is compressed/original size; 1.0 for an empty input.
func (s CompressionStats) Ratio() float64 {
	if s.OriginalSize <= 0 {
		return 1.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings is the percentage of bytes Ratio removed.
func (s CompressionStats) SpaceSavings() float64 {
	return (1 - s.Ratio()) * 100
}

// MeasureCompress runs codec on data and reports the resulting
// CompressionStats alongside the compressed bytes.
func MeasureCompress(codec Codec, algo format.CompressionType, data []byte) ([]byte, CompressionStats, error) {
	out, err := codec.Compress(data)
	if err != nil {
		return nil, CompressionStats{}, err
	}

	return out, CompressionStats{Algorithm: algo, OriginalSize: int64(len(data)), CompressedSize: int64(len(out))}, nil
}

// GetCodec returns the Codec for compressionType, backing the dump
// command's --compress option. Every codec here is a stateless value
// type, so callers may request one per call without pooling concerns
// of their own.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NoOpCompressor{}, nil
	case format.CompressionZstd:
		return ZstdCompressor{}, nil
	case format.CompressionS2:
		return S2Compressor{}, nil
	case format.CompressionLZ4:
		return LZ4Compressor{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported compression type %s", errs.ErrInvalidArgument, compressionType)
	}
}
