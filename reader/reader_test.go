package reader

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icrar/subtool/cache"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/metadata"
)

func testInput() metadata.Input {
	return metadata.Input{
		SampleRate:     1280000,
		SecsPerSubobs:  8,
		SamplesPerLine: 64000,
		NumSources:     2,
		MwaxSubVersion: format.SubVersionV1,
	}
}

// buildSubfile writes a minimal subfile: header zeroed, dt/udpmap zeroed,
// margin filled with a pattern whose byte value changes every 256 bytes
// (so a source's head and tail halves differ), then blocksPerSub data
// blocks each filled with the block index repeated.
func buildSubfile(t *testing.T, m metadata.Metadata) *os.File {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "sub-*.dat")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	totalSize := m.DataOffset + m.BlocksPerSub*m.BlockLength
	require.NoError(t, f.Truncate(totalSize))

	margin := make([]byte, m.MarginLength)
	for i := range margin {
		margin[i] = byte(i >> 8)
	}
	_, err = f.WriteAt(margin, m.MarginOffset)
	require.NoError(t, err)

	for b := int64(1); b <= m.BlocksPerSub; b++ {
		block := make([]byte, m.BlockLength)
		for i := range block {
			block[i] = byte(b)
		}
		_, err = f.WriteAt(block, m.BlockOffset(b))
		require.NoError(t, err)
	}

	return f
}

func TestReadBlockAndCache(t *testing.T) {
	m, err := metadata.Derive(testInput())
	require.NoError(t, err)

	f := buildSubfile(t, m)
	r := New(f, m, cache.New(cache.DefaultCapacityBytes))

	block, err := r.ReadBlock(1)
	require.NoError(t, err)
	assert.Len(t, block, int(m.BlockLength))
	assert.Equal(t, byte(1), block[0])

	assert.EqualValues(t, 0, r.cache.Stats().Hits)
	_, err = r.ReadBlock(1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.cache.Stats().Hits)
}

func TestReadBlockOrNullOutsideRange(t *testing.T) {
	m, err := metadata.Derive(testInput())
	require.NoError(t, err)

	f := buildSubfile(t, m)
	r := New(f, m, nil)

	block, err := r.ReadBlockOrNull(0)
	require.NoError(t, err)
	assert.Nil(t, block)

	block, err = r.ReadBlockOrNull(m.BlocksPerSub + 1)
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestReadLineWithinBlock(t *testing.T) {
	m, err := metadata.Derive(testInput())
	require.NoError(t, err)

	f := buildSubfile(t, m)
	r := New(f, m, nil)

	line, err := r.ReadLine(1, 0)
	require.NoError(t, err)
	assert.Len(t, line, int(m.SubLineSize))
}

func TestReadMarginLineHeadAndTail(t *testing.T) {
	m, err := metadata.Derive(testInput())
	require.NoError(t, err)

	f := buildSubfile(t, m)
	r := New(f, m, nil)

	head, err := r.ReadMarginLine(0, true)
	require.NoError(t, err)

	tail, err := r.ReadMarginLine(0, false)
	require.NoError(t, err)

	assert.NotEqual(t, head, tail)
	assert.Len(t, head, int(m.MarginSamples*metadata.BytesPerSample))
}

func TestReadBlockOutOfRange(t *testing.T) {
	m, err := metadata.Derive(testInput())
	require.NoError(t, err)

	f := buildSubfile(t, m)
	r := New(f, m, nil)

	_, err = r.ReadBlock(m.BlocksPerSub + 1)
	assert.Error(t, err)
}
