// Package loader opens a subfile, parses its header, derives its
// geometry and loads its delay table, producing the Subfile handle
// every command operates on. It also implements the v1->v2 on-disk
// upgrade (spec.md §4.10), which — unlike delaytable.Upgrade's
// in-memory table conversion — repositions the udpmap and margin
// sections and rewrites the header in place.
package loader

import (
	"fmt"
	"os"

	"github.com/icrar/subtool/cache"
	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/header"
	"github.com/icrar/subtool/metadata"
	"github.com/icrar/subtool/reader"
)

// Subfile bundles an open file with its derived geometry, parsed
// header and delay table, and a cache-backed Reader over it.
type Subfile struct {
	Path   string
	File   *os.File
	Meta   metadata.Metadata
	Header *header.Header
	Table  *delaytable.Table
	Reader *reader.Reader
}

// Close closes the underlying file handle.
func (s *Subfile) Close() error {
	return s.File.Close()
}

// Open opens path read-write (several commands — set, unset, bake,
// upgrade, patch — operate on the target file in place), parses its
// header, derives its Metadata, and decodes its embedded delay table.
// cacheCapacity sets the block cache's byte capacity
// (cache.DefaultCapacityBytes for most commands, cache.BakeCapacityBytes
// for bake).
func Open(path string, cacheCapacity int64) (*Subfile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", errs.ErrIoFailure, path, err)
	}

	hdrBuf := make([]byte, metadata.HeaderLength)
	if _, err := f.ReadAt(hdrBuf, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading header of %s: %v", errs.ErrIoFailure, path, err)
	}

	hdr, err := header.Parse(hdrBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	in, err := inputFromHeader(hdr)
	if err != nil {
		f.Close()
		return nil, err
	}

	meta, err := metadata.Derive(in)
	if err != nil {
		f.Close()
		return nil, err
	}

	r := reader.New(f, meta, cache.New(cacheCapacity))

	dtBuf, err := r.ReadSection(format.SectionDelayTable)
	if err != nil {
		f.Close()
		return nil, err
	}

	version, _, _, err := delaytable.Detect(dtBuf)
	if err != nil {
		f.Close()
		return nil, err
	}

	if format.SubVersion(in.MwaxSubVersion) != version {
		f.Close()
		return nil, fmt.Errorf("%w: header declares mwax_sub_version %v but delay table detects as %v",
			errs.ErrVersionMismatch, in.MwaxSubVersion, version)
	}

	// The section holds one row per source with NumFracDelays entries
	// each; structure inference can accept a smaller row count when rows
	// look alike, so the parse uses the header-derived geometry.
	table, err := delaytable.ParseBinary(dtBuf, version, int(meta.NumSources), int(meta.NumFracDelays))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Subfile{Path: path, File: f, Meta: meta, Header: hdr, Table: table, Reader: r}, nil
}

// inputFromHeader extracts the subset of header fields metadata.Derive
// needs.
func inputFromHeader(h *header.Header) (metadata.Input, error) {
	obsID, err := h.GetInt("OBS_ID")
	if err != nil {
		return metadata.Input{}, err
	}

	subobsID, err := h.GetInt("SUBOBS_ID")
	if err != nil {
		return metadata.Input{}, err
	}

	sampleRate, err := h.GetInt("SAMPLE_RATE")
	if err != nil {
		return metadata.Input{}, err
	}

	secsPerSubobs, err := h.GetInt("SECS_PER_SUBOBS")
	if err != nil {
		return metadata.Input{}, err
	}

	samplesPerLine, err := h.GetInt("NTIMESAMPLES")
	if err != nil {
		return metadata.Input{}, err
	}

	numSources, err := h.GetInt("NINPUTS")
	if err != nil {
		return metadata.Input{}, err
	}

	subVer, err := h.GetInt("MWAX_SUB_VER")
	if err != nil {
		return metadata.Input{}, err
	}

	return metadata.Input{
		ObservationID:    uint32(obsID),
		SubobservationID: uint32(subobsID),
		SampleRate:       uint32(sampleRate),
		SecsPerSubobs:    uint32(secsPerSubobs),
		SamplesPerLine:   uint32(samplesPerLine),
		NumSources:       uint32(numSources),
		MwaxSubVersion:   format.SubVersion(subVer),
	}, nil
}
