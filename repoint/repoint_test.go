package repoint

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icrar/subtool/cache"
	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/metadata"
	"github.com/icrar/subtool/reader"
)

// buildS1Subfile constructs the exact micro-repoint fixture in boundary
// scenario S1: num_sources=2, samples_per_line=4, blocks_per_sub=3,
// margin_samples=8.
func buildS1Subfile(t *testing.T) (*os.File, metadata.Metadata) {
	t.Helper()

	m := metadata.Metadata{
		Input: metadata.Input{
			SamplesPerLine: 4,
			NumSources:     2,
		},
		BlocksPerSub:  3,
		SubLineSize:   4 * metadata.BytesPerSample,
		MarginSamples: 8,
	}
	m.BlockLength = m.SubLineSize * int64(m.Input.NumSources)
	m.MarginLength = int64(m.Input.NumSources) * m.MarginSamples * metadata.BytesPerSample * 2
	m.DTOffset = metadata.HeaderLength
	m.UDPMapOffset = m.DTOffset
	m.DataOffset = metadata.HeaderLength + m.BlockLength
	// A 16-byte block cannot hold the 64-byte margin in the preamble, so the
	// fixture stores the margin after the last data block, where it cannot
	// overlap the block data.
	m.MarginOffset = m.DataOffset + m.BlocksPerSub*m.BlockLength

	f, err := os.CreateTemp(t.TempDir(), "s1-*.dat")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	require.NoError(t, f.Truncate(m.DataOffset+m.BlocksPerSub*m.BlockLength))

	// Source 0 data: block1=[4,5,6,7] block2=[8,9,10,11] block3=[12,13,14,15].
	// Source 1 data: block1=[104..107] block2=[108..111] block3=[112..115].
	src0 := []int16{4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	src1 := []int16{104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114, 115}

	for b := int64(0); b < m.BlocksPerSub; b++ {
		block := make([]byte, m.BlockLength)
		writeSamples(block, 0, src0[b*4:b*4+4])
		writeSamples(block, m.SubLineSize, src1[b*4:b*4+4])
		_, err = f.WriteAt(block, m.BlockOffset(b+1))
		require.NoError(t, err)
	}

	// Margin: src0 head=[0..7], tail=[12..19]; src1 head=[100..107], tail=[112..119].
	margin := make([]byte, m.MarginLength)
	writeSamples(margin, 0, rng(0, 8))
	writeSamples(margin, 8*metadata.BytesPerSample, rng(12, 8))
	srcStride := m.MarginSamples * metadata.BytesPerSample * 2
	writeSamples(margin, srcStride, rng(100, 8))
	writeSamples(margin, srcStride+8*metadata.BytesPerSample, rng(112, 8))
	_, err = f.WriteAt(margin, m.MarginOffset)
	require.NoError(t, err)

	return f, m
}

func rng(start int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = start + int16(i)
	}

	return out
}

func writeSamples(buf []byte, offset int64, samples []int16) {
	for i, s := range samples {
		buf[offset+int64(i)*2] = byte(s)
		buf[offset+int64(i)*2+1] = byte(s >> 8)
	}
}

func readSamples(buf []byte, offset int64, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		lo := buf[offset+int64(i)*2]
		hi := buf[offset+int64(i)*2+1]
		out[i] = int16(uint16(lo) | uint16(hi)<<8)
	}

	return out
}

func tableWithWSDelay(delays ...int16) *delaytable.Table {
	entries := make([]delaytable.Entry, len(delays))
	for i, d := range delays {
		entries[i] = delaytable.Entry{WSDelay: d}
	}

	return &delaytable.Table{Version: format.SubVersionV1, Entries: entries}
}

// TestS1MicroRepoint implements boundary scenario S1 and testable
// property 6's converse (a non-trivial N actually shifts data).
func TestS1MicroRepoint(t *testing.T) {
	f, m := buildS1Subfile(t)
	r := reader.New(f, m, cache.New(cache.DefaultCapacityBytes))

	from := tableWithWSDelay(-1, 1)
	to := tableWithWSDelay(2, -2)

	eng, err := New(r, from, to)
	require.NoError(t, err)

	block1, err := eng.Block(1)
	require.NoError(t, err)
	block2, err := eng.Block(2)
	require.NoError(t, err)
	block3, err := eng.Block(3)
	require.NoError(t, err)

	// src0: N=+3, head from margin[pivot-3-(-1)-1 : pivot-(-1)-1) = margin[1:4) = [1,2,3]
	assert.Equal(t, []int16{1, 2, 3, 4}, readSamples(block1, 0, 4))
	// body continues shifting in from cur block each step
	assert.Equal(t, []int16{5, 6, 7, 8}, readSamples(block2, 0, 4))
	assert.Equal(t, []int16{9, 10, 11, 12}, readSamples(block3, 0, 4))

	// src1: N=-3, tail at last block from margin[pivot-M+1 : pivot-N-M+1) = margin[4:7) = [116,117,118] (M=1)
	assert.Equal(t, []int16{107, 108, 109, 110}, readSamples(block1, m.SubLineSize, 4))
	assert.Equal(t, []int16{111, 112, 113, 114}, readSamples(block2, m.SubLineSize, 4))
	lastSrc1 := readSamples(block3, m.SubLineSize, 4)
	assert.Equal(t, []int16{115, 116, 117, 118}, lastSrc1)
}

// TestRepointIdentity implements testable property 6: to == from leaves
// the data section byte-for-byte unchanged.
func TestRepointIdentity(t *testing.T) {
	f, m := buildS1Subfile(t)
	r := reader.New(f, m, cache.New(cache.DefaultCapacityBytes))

	same := tableWithWSDelay(-1, 1)

	eng, err := New(r, same, same)
	require.NoError(t, err)

	for b := int64(1); b <= m.BlocksPerSub; b++ {
		orig, err := r.ReadBlock(b)
		require.NoError(t, err)

		got, err := eng.Block(b)
		require.NoError(t, err)

		assert.Equal(t, orig, got)
	}
}
