package export

// ZstdCompressor is the `--compress=zstd` codec: the best compression
// ratio of the four, at real cost to speed — the pick for a dump bound
// for cold storage rather than another pass through subtool. Its
// Compress/Decompress live in zstd_pure.go (default, pure Go) or
// zstd_cgo.go (behind the nobuild tag, cgo-backed and faster).
type ZstdCompressor struct{}

var _ Codec = ZstdCompressor{}
