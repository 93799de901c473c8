package loader

import (
	"fmt"

	"github.com/icrar/subtool/cache"
	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/header"
	"github.com/icrar/subtool/metadata"
	"github.com/icrar/subtool/reader"
)

// Upgrade converts s's on-disk delay table from v1 to v2, per
// spec.md §4.10. A no-op if s is already v2. The udpmap and margin
// sections move (the delay table grows), so they are read into memory
// before the new layout is computed and rewritten at their new
// offsets; the header's FRAC_DELAY_SIZE and MWAX_SUB_VER fields are
// updated and the header re-serialised in place.
func (s *Subfile) Upgrade() error {
	if s.Table.Version == format.SubVersionV2 {
		return nil
	}

	udpmap, err := s.Reader.ReadSection(format.SectionUDPMap)
	if err != nil {
		return err
	}

	margin, err := s.Reader.ReadSection(format.SectionMargin)
	if err != nil {
		return err
	}

	newTable := delaytable.Upgrade(s.Table)

	newMeta, err := metadata.Derive(metadata.Input{
		ObservationID:    s.Meta.ObservationID,
		SubobservationID: s.Meta.SubobservationID,
		SampleRate:       s.Meta.SampleRate,
		SecsPerSubobs:    s.Meta.SecsPerSubobs,
		SamplesPerLine:   s.Meta.SamplesPerLine,
		NumSources:       s.Meta.NumSources,
		MwaxSubVersion:   format.SubVersionV2,
	})
	if err != nil {
		return err
	}

	dtBytes, err := newTable.Bytes()
	if err != nil {
		return err
	}

	if err := s.writeAt(dtBytes, newMeta.DTOffset); err != nil {
		return err
	}

	if err := s.writeAt(udpmap, newMeta.UDPMapOffset); err != nil {
		return err
	}

	if err := s.writeAt(margin, newMeta.MarginOffset); err != nil {
		return err
	}

	if err := s.Header.Set("FRAC_DELAY_SIZE", header.IntValue(int64(newMeta.FracDelaySize)), true); err != nil {
		return err
	}

	if err := s.Header.Set("MWAX_SUB_VER", header.IntValue(int64(format.SubVersionV2)), true); err != nil {
		return err
	}

	hdrBytes, err := s.Header.Serialise()
	if err != nil {
		return err
	}

	if err := s.writeAt(hdrBytes, 0); err != nil {
		return err
	}

	s.Meta = newMeta
	s.Table = newTable
	// Offsets within the preamble moved; a fresh cache avoids serving a
	// section read under its pre-upgrade offset.
	s.Reader = reader.New(s.File, newMeta, cache.New(cache.DefaultCapacityBytes))

	return nil
}

func (s *Subfile) writeAt(buf []byte, offset int64) error {
	n, err := s.File.WriteAt(buf, offset)
	if err != nil {
		return fmt.Errorf("%w: writing %d bytes at offset %d: %v", errs.ErrIoFailure, len(buf), offset, err)
	}

	if n != len(buf) {
		return fmt.Errorf("%w: short write at offset %d: wrote %d of %d bytes", errs.ErrIoFailure, offset, n, len(buf))
	}

	return nil
}
