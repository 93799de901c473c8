package command

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/header"
	"github.com/icrar/subtool/loader"
	"github.com/icrar/subtool/metadata"
)

// testInput is a small but structurally valid geometry: one block,
// two sources, chosen so the dt+udpmap+margin preamble comfortably
// fits within one block_length and BlocksPerSub*SamplesPerLine divides
// evenly by the default bake fft size.
func testInput() metadata.Input {
	return metadata.Input{
		ObservationID:    1000000000,
		SubobservationID: 1000000008,
		SampleRate:       16384,
		SecsPerSubobs:    1,
		SamplesPerLine:   16384,
		NumSources:       2,
		MwaxSubVersion:   format.SubVersionV1,
	}
}

func buildHeader(t *testing.T, in metadata.Input) []byte {
	t.Helper()

	h := header.New()
	require.NoError(t, h.Set("OBS_ID", header.IntValue(int64(in.ObservationID)), false))
	require.NoError(t, h.Set("SUBOBS_ID", header.IntValue(int64(in.SubobservationID)), false))
	require.NoError(t, h.Set("SAMPLE_RATE", header.IntValue(int64(in.SampleRate)), false))
	require.NoError(t, h.Set("SECS_PER_SUBOBS", header.IntValue(int64(in.SecsPerSubobs)), false))
	require.NoError(t, h.Set("NTIMESAMPLES", header.IntValue(int64(in.SamplesPerLine)), false))
	require.NoError(t, h.Set("NINPUTS", header.IntValue(int64(in.NumSources)), false))
	require.NoError(t, h.Set("MWAX_SUB_VER", header.IntValue(int64(in.MwaxSubVersion)), false))

	buf, err := h.Serialise()
	require.NoError(t, err)

	return buf
}

// buildSubfile writes a full, structurally valid v1 subfile (distinct
// per-source delays, deterministic data bytes) to a temp file and
// opens it through loader.Open.
func buildSubfile(t *testing.T) *loader.Subfile {
	t.Helper()

	in := testInput()
	m, err := metadata.Derive(in)
	require.NoError(t, err)

	entries := make([]delaytable.Entry, in.NumSources)
	for i := range entries {
		entries[i] = delaytable.Entry{
			RFInput:      uint16(i),
			WSDelay:      int16(i),
			NumPointings: 1,
			FracDelay:    make([]float64, m.NumFracDelays),
		}
	}
	table := &delaytable.Table{Version: format.SubVersionV1, Entries: entries}
	dtBytes, err := table.Bytes()
	require.NoError(t, err)
	require.EqualValues(t, m.DTLength, len(dtBytes))

	f, err := os.CreateTemp(t.TempDir(), "cmd-*.sub")
	require.NoError(t, err)

	total := m.DataOffset + m.BlocksPerSub*m.BlockLength
	require.NoError(t, f.Truncate(total))

	hdrBytes := buildHeader(t, in)
	_, err = f.WriteAt(hdrBytes, 0)
	require.NoError(t, err)

	_, err = f.WriteAt(dtBytes, m.DTOffset)
	require.NoError(t, err)

	udpmap := make([]byte, m.UDPMapLength)
	for i := range udpmap {
		udpmap[i] = byte(i)
	}
	_, err = f.WriteAt(udpmap, m.UDPMapOffset)
	require.NoError(t, err)

	margin := make([]byte, m.MarginLength)
	for i := range margin {
		margin[i] = byte(i * 3)
	}
	_, err = f.WriteAt(margin, m.MarginOffset)
	require.NoError(t, err)

	for b := int64(1); b <= m.BlocksPerSub; b++ {
		block := make([]byte, m.BlockLength)
		for i := range block {
			block[i] = byte(int64(i) + b)
		}
		_, err = f.WriteAt(block, m.BlockOffset(b))
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	s, err := loader.Open(f.Name(), 1<<20)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestInfoWritesSummary(t *testing.T) {
	s := buildSubfile(t)

	var buf bytes.Buffer
	require.NoError(t, Info(s, &buf))

	out := buf.String()
	assert.Contains(t, out, "blocks_per_sub: 1")
	assert.Contains(t, out, "num_sources: 2")
	assert.Contains(t, out, "OBS_ID")
}

func TestShowHexDump(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(WithShowBlock(1), WithHexOffsets(true))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Show(s, cfg, &buf))

	assert.Contains(t, buf.String(), "00000000  ")
}

func TestGetSetUnset(t *testing.T) {
	s := buildSubfile(t)

	var buf bytes.Buffer
	require.NoError(t, Get(s, "OBS_ID", &buf))
	assert.Equal(t, "1000000000\n", buf.String())

	// unknown key without force fails
	cfg, err := NewConfig()
	require.NoError(t, err)
	err = Set(s, cfg, "CUSTOM_FIELD", header.StringValue("hello"))
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	cfgForce, err := NewConfig(WithForceDelays(true))
	require.NoError(t, err)
	require.NoError(t, Set(s, cfgForce, "CUSTOM_FIELD", header.StringValue("hello")))

	buf.Reset()
	require.NoError(t, Get(s, "CUSTOM_FIELD", &buf))
	assert.Equal(t, "hello\n", buf.String())

	require.NoError(t, Unset(s, "CUSTOM_FIELD"))
	assert.ErrorIs(t, Get(s, "CUSTOM_FIELD", &buf), errs.ErrMissingResource)

	// re-open to confirm persistence
	path := s.Path
	require.NoError(t, s.Close())

	reopened, err := loader.Open(path, 1<<20)
	require.NoError(t, err)
	defer reopened.Close()

	_, ok := reopened.Header.Get("CUSTOM_FIELD")
	assert.False(t, ok)
}

func TestDTRoundTrip(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(WithFormatOut(format.FormatCSV))
	require.NoError(t, err)

	var got bytes.Buffer
	require.NoError(t, DT(s, cfg, &got))

	var want bytes.Buffer
	require.NoError(t, delaytable.WriteCSV(&want, s.Table))

	assert.Equal(t, want.String(), got.String())
}

func TestDumpSection(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(WithDumpSection(format.SectionHeader))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Dump(s, cfg, &buf))

	want, err := s.Reader.ReadSection(format.SectionHeader)
	require.NoError(t, err)

	assert.Equal(t, want, buf.Bytes())
}

func TestDumpSourceWithMargin(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(
		WithDumpSource(1),
		WithDumpBlock(1),
		WithDumpWithMargin(true),
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Dump(s, cfg, &buf))

	wantLine, err := s.Reader.ReadLine(1, 1)
	require.NoError(t, err)
	wantHead, err := s.Reader.ReadMarginLine(1, true)
	require.NoError(t, err)
	wantTail, err := s.Reader.ReadMarginLine(1, false)
	require.NoError(t, err)

	want := append(append(append([]byte(nil), wantHead...), wantLine...), wantTail...)
	assert.Equal(t, want, buf.Bytes())
}

func TestReplaceIdentityRoundTrip(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig()
	require.NoError(t, err)

	outPath := t.TempDir() + "/out.sub"
	require.NoError(t, Replace(s, cfg, outPath))

	want := make([]byte, s.Meta.DataOffset+s.Meta.BlocksPerSub*s.Meta.BlockLength)
	_, err = s.File.ReadAt(want, 0)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestResamplePassthroughWithNoRules(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(WithResampleRegion(2))
	require.NoError(t, err)

	outPath := t.TempDir() + "/out.sub"
	require.NoError(t, Resample(s, cfg, outPath))

	want := make([]byte, s.Meta.DataOffset+s.Meta.BlocksPerSub*s.Meta.BlockLength)
	_, err = s.File.ReadAt(want, 0)
	require.NoError(t, err)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestRepointZeroClearsDelays(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(WithRepointZero(true))
	require.NoError(t, err)

	outPath := t.TempDir() + "/out.sub"
	require.NoError(t, Repoint(s, cfg, outPath))

	out, err := loader.Open(outPath, 1<<20)
	require.NoError(t, err)
	defer out.Close()

	for i, e := range out.Table.Entries {
		assert.Zero(t, e.WSDelay, "entry %d", i)
		for j, v := range e.FracDelay {
			assert.Zero(t, v, "entry %d frac %d", i, j)
		}
	}
}

func TestBakeZeroesFracDelayAndPreservesSources(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig()
	require.NoError(t, err)

	outPath := t.TempDir() + "/out.sub"
	require.NoError(t, Bake(s, cfg, outPath))

	out, err := loader.Open(outPath, 1<<20)
	require.NoError(t, err)
	defer out.Close()

	require.Len(t, out.Table.Entries, len(s.Table.Entries))
	for i, e := range out.Table.Entries {
		assert.Equal(t, s.Table.Entries[i].RFInput, e.RFInput)
		for j, v := range e.FracDelay {
			assert.Zero(t, v, "entry %d frac %d", i, j)
		}
	}
}

func TestUpgradeCmdConvertsToV2(t *testing.T) {
	s := buildSubfile(t)
	require.NoError(t, UpgradeCmd(s))
	assert.Equal(t, format.SubVersionV2, s.Table.Version)
}

func TestPatchRoundTrip(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(WithPatchSection(format.SectionUDPMap))
	require.NoError(t, err)

	data := make([]byte, s.Meta.UDPMapLength)
	for i := range data {
		data[i] = 0xAA
	}

	require.NoError(t, Patch(s, cfg, data))

	got, err := s.Reader.ReadSection(format.SectionUDPMap)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPatchRejectsWrongLength(t *testing.T) {
	s := buildSubfile(t)
	cfg, err := NewConfig(WithPatchSection(format.SectionUDPMap))
	require.NoError(t, err)

	err = Patch(s, cfg, []byte{1, 2, 3})
	assert.ErrorIs(t, err, errs.ErrInvalidFormat)
}
