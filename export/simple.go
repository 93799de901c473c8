package export

import "github.com/klauspost/compress/s2"

// NoOpCompressor is the `--compress=none` codec: it copies data through
// unchanged, as a baseline for archives that are already incompressible
// (a fully-baked data section, say) or when the caller wants raw bytes.
type NoOpCompressor struct{}

var _ Codec = NoOpCompressor{}

func (NoOpCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

func (NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

// S2Compressor is the `--compress=s2` codec: klauspost/compress/s2,
// a Snappy-derived format trading compression ratio for speed — the
// middle ground between LZ4Compressor and ZstdCompressor.
type S2Compressor struct{}

var _ Codec = S2Compressor{}

func (S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

func (S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
