// Package export provides compression codecs for subtool's dump/backup
// artifacts.
//
// It never touches subfile sections themselves — those must stay
// byte-exact per the round-trip invariants the core relies on. Instead
// it backs the `dump` command's `--compress` option, letting an
// extracted block/section dump (which, for a full subfile, can be
// multi-gigabyte) be written as a smaller archive.
//
// # Supported Algorithms
//
//   - None: no compression, fastest, useful as a baseline or when the
//     data is already incompressible.
//   - Zstd: best compression ratio, moderate speed. Good default for
//     cold-storage dumps.
//   - S2: balanced compression and speed.
//   - LZ4: fastest decompression, moderate compression ratio.
//
// # Architecture
//
// The package defines three interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// Zstd has two implementations selected by build tag: the pure-Go
// klauspost/compress/zstd codec (default, `!cgo`) and a cgo codec backed
// by valyala/gozstd, built only with `-tags nobuild` for environments
// where the cgo build is acceptable and the extra throughput matters.
//
// # Thread Safety
//
// All codec implementations are safe for concurrent use.
package export
