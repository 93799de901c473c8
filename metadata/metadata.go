// Package metadata derives the fixed geometry of an open subfile —
// block and line sizes, delay-table and margin lengths, and every
// section offset — from the small set of header fields that drive
// them. All derived fields are computed once with exact integer
// arithmetic and never recomputed piecemeal elsewhere, so every
// consumer (reader, writer, repoint/remap/resample engines) agrees on
// where a section starts and how long it is.
package metadata

import (
	"fmt"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
)

// Geometry constants fixed by the subfile format itself, not read from
// the header.
const (
	SamplesPerPacket = 2048 // samples per UDP packet
	MarginPackets    = 2    // packets of margin retained at each end
	FFTPerBlock      = 10   // FFT windows per block, drives num_frac_delays
	HeaderLength     = 4096 // fixed header section length in bytes
	BytesPerSample   = 2    // one complex 8-bit sample = 2 bytes
)

// Input carries the header fields that Derive needs. It corresponds to
// the subset of HEADER_FIELDS that affect subfile geometry.
type Input struct {
	ObservationID    uint32
	SubobservationID uint32
	SampleRate       uint32 // samples/s
	SecsPerSubobs    uint32
	SamplesPerLine   uint32 // NTIMESAMPLES
	NumSources       uint32 // NINPUTS
	MwaxSubVersion   format.SubVersion
}

// Metadata is the derived, immutable geometry of one open subfile. It
// is created once on file open (see package loader) and never mutated
// thereafter, except by the upgrade operation which derives a new
// Metadata reflecting the v2 layout.
type Metadata struct {
	Input

	// Derived counts and sizes.
	BlocksPerSub   int64
	SubLineSize    int64 // bytes per source per line
	BlockLength    int64 // bytes per block (all sources)
	NumFracDelays  int64
	MarginSamples  int64
	FracDelaySize  int64 // 2 for v1, 4 for v2
	DTEntryMinSize int64 // 20 for v1, 56 for v2
	DTLength       int64
	UDPMapLength   int64
	MarginLength   int64

	// Section offsets.
	HeaderOffset int64
	DTOffset     int64
	UDPMapOffset int64
	MarginOffset int64
	DataOffset   int64
}

// Derive computes a Metadata from Input, validating every integer
// division is exact and that invariant P1 (the dt+udpmap+margin
// preamble fits within one block_length region) holds.
func Derive(in Input) (Metadata, error) {
	if in.SamplesPerLine == 0 || in.NumSources == 0 {
		return Metadata{}, fmt.Errorf("%w: samples_per_line and num_sources must be non-zero", errs.ErrInvalidFormat)
	}

	m := Metadata{Input: in, HeaderOffset: 0}

	blocksNum := int64(in.SampleRate) * int64(in.SecsPerSubobs)
	if blocksNum%int64(in.SamplesPerLine) != 0 {
		return Metadata{}, fmt.Errorf("%w: sample_rate*secs_per_subobs not divisible by samples_per_line", errs.ErrInvalidFormat)
	}
	m.BlocksPerSub = blocksNum / int64(in.SamplesPerLine)

	m.SubLineSize = int64(in.SamplesPerLine) * BytesPerSample
	m.BlockLength = m.SubLineSize * int64(in.NumSources)
	m.NumFracDelays = m.BlocksPerSub * FFTPerBlock
	m.MarginSamples = MarginPackets * SamplesPerPacket

	switch in.MwaxSubVersion {
	case format.SubVersionV1:
		m.FracDelaySize = 2
		m.DTEntryMinSize = 20
	case format.SubVersionV2:
		m.FracDelaySize = 4
		m.DTEntryMinSize = 56
	default:
		return Metadata{}, fmt.Errorf("%w: unknown mwax_sub_version %v", errs.ErrVersionMismatch, in.MwaxSubVersion)
	}

	m.DTLength = int64(in.NumSources) * (m.DTEntryMinSize + m.NumFracDelays*m.FracDelaySize)

	packetsNum := int64(in.SampleRate) * int64(in.SecsPerSubobs)
	if packetsNum%int64(SamplesPerPacket) != 0 {
		return Metadata{}, fmt.Errorf("%w: sample_rate*secs_per_subobs not divisible by samples_per_packet", errs.ErrInvalidFormat)
	}
	packetsPerSource := packetsNum / SamplesPerPacket
	if packetsPerSource%8 != 0 {
		return Metadata{}, fmt.Errorf("%w: packets per source not divisible by 8 for udpmap bit array", errs.ErrInvalidFormat)
	}
	m.UDPMapLength = int64(in.NumSources) * (packetsPerSource / 8)

	m.MarginLength = int64(in.NumSources) * m.MarginSamples * BytesPerSample * 2

	m.DTOffset = HeaderLength
	m.UDPMapOffset = m.DTOffset + m.DTLength
	m.MarginOffset = m.UDPMapOffset + m.UDPMapLength
	m.DataOffset = HeaderLength + m.BlockLength

	preambleUsed := m.DTLength + m.UDPMapLength + m.MarginLength
	if preambleUsed > m.BlockLength {
		return Metadata{}, fmt.Errorf("%w: preamble (dt+udpmap+margin = %d bytes) does not fit in one block (%d bytes)",
			errs.ErrInvalidFormat, preambleUsed, m.BlockLength)
	}

	return m, nil
}

// HasSection reports whether name is present for this subfile. All
// five sections are always present for a well-formed subfile; this
// exists so reader.ReadSection can fail with ErrMissingResource for a
// section name that is not one of the five known sections, matching
// the "requires name_present true in metadata" contract in the reader
// design.
func (m Metadata) HasSection(s format.Section) bool {
	switch s {
	case format.SectionHeader, format.SectionDelayTable, format.SectionUDPMap, format.SectionMargin, format.SectionData:
		return true
	default:
		return false
	}
}

// SectionOffset returns the byte offset of section s.
func (m Metadata) SectionOffset(s format.Section) (int64, error) {
	switch s {
	case format.SectionHeader:
		return m.HeaderOffset, nil
	case format.SectionDelayTable:
		return m.DTOffset, nil
	case format.SectionUDPMap:
		return m.UDPMapOffset, nil
	case format.SectionMargin:
		return m.MarginOffset, nil
	case format.SectionData:
		return m.DataOffset, nil
	default:
		return 0, fmt.Errorf("%w: section %v", errs.ErrMissingResource, s)
	}
}

// SectionLength returns the byte length of section s. SectionData has
// no fixed length (it runs to EOF); callers must derive its length from
// file size or BlocksPerSub*BlockLength.
func (m Metadata) SectionLength(s format.Section) (int64, error) {
	switch s {
	case format.SectionHeader:
		return HeaderLength, nil
	case format.SectionDelayTable:
		return m.DTLength, nil
	case format.SectionUDPMap:
		return m.UDPMapLength, nil
	case format.SectionMargin:
		return m.MarginLength, nil
	case format.SectionData:
		return m.BlocksPerSub * m.BlockLength, nil
	default:
		return 0, fmt.Errorf("%w: section %v", errs.ErrMissingResource, s)
	}
}

// BlockOffset returns the byte offset of block idx (0 = preamble
// block, N>=1 begins at header_length + N*block_length).
func (m Metadata) BlockOffset(idx int64) int64 {
	if idx == 0 {
		return HeaderLength
	}

	return HeaderLength + idx*m.BlockLength
}

// LineOffset returns the byte offset of source srcIdx's line within a
// block, relative to the start of that block.
func (m Metadata) LineOffset(srcIdx int64) int64 {
	return srcIdx * m.SubLineSize
}
