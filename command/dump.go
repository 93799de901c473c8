package command

import (
	"fmt"
	"io"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/export"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/loader"
)

// Dump writes the section/block/source cfg selects to w, optionally
// compressed via cfg.DumpCompress: the `dump` command. Only one of
// cfg.HasDumpSection (a whole named section), cfg.HasDumpBlock (one
// data block), or cfg.HasDumpSource (one source's line within that
// block, honoring cfg.DumpWithMargin) need be set; dump_section takes
// precedence when more than one is.
func Dump(s *loader.Subfile, cfg *Config, w io.Writer) error {
	data, err := dumpBytes(s, cfg)
	if err != nil {
		return err
	}

	codec, err := export.GetCodec(cfg.DumpCompress)
	if err != nil {
		return err
	}

	out, err := codec.Compress(data)
	if err != nil {
		return err
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
	}

	return nil
}

func dumpBytes(s *loader.Subfile, cfg *Config) ([]byte, error) {
	switch {
	case cfg.HasDumpSection:
		return s.Reader.ReadSection(cfg.DumpSection)

	case cfg.HasDumpSource:
		idx := cfg.DumpBlock
		if !cfg.HasDumpBlock {
			idx = 1
		}

		line, err := lineForSource(s, idx, cfg.DumpSource)
		if err != nil {
			return nil, err
		}

		if !cfg.DumpWithMargin {
			return line, nil
		}

		return withMargin(s, idx, cfg.DumpSource, line)

	case cfg.HasDumpBlock:
		return s.Reader.ReadBlock(cfg.DumpBlock)

	default:
		return s.Reader.ReadSection(format.SectionData)
	}
}

func lineForSource(s *loader.Subfile, blockIdx int64, sourceID uint16) ([]byte, error) {
	pos, err := linePosition(s, sourceID)
	if err != nil {
		return nil, err
	}

	return s.Reader.ReadLine(blockIdx, int64(pos))
}

func linePosition(s *loader.Subfile, sourceID uint16) (int, error) {
	for i, e := range s.Table.Entries {
		if e.RFInput == sourceID {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: source %d not present in subfile", errs.ErrMissingResource, sourceID)
}

// withMargin prepends that source's head margin and appends its tail
// margin to line, for a --with-margin dump.
func withMargin(s *loader.Subfile, blockIdx int64, sourceID uint16, line []byte) ([]byte, error) {
	pos, err := linePosition(s, sourceID)
	if err != nil {
		return nil, err
	}

	head, err := s.Reader.ReadMarginLine(int64(pos), true)
	if err != nil {
		return nil, err
	}

	tail, err := s.Reader.ReadMarginLine(int64(pos), false)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(head)+len(line)+len(tail))
	out = append(out, head...)
	out = append(out, line...)
	out = append(out, tail...)

	return out, nil
}
