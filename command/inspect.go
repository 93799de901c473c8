package command

import (
	"fmt"
	"io"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/header"
	"github.com/icrar/subtool/loader"
)

// Info writes a summary of s's header fields and derived geometry to
// w: the `info` command.
func Info(s *loader.Subfile, w io.Writer) error {
	pretty, err := s.Header.Print(header.PrintPretty)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", pretty)
	fmt.Fprintf(w, "mwax_sub_version: %s\n", s.Table.Version)
	fmt.Fprintf(w, "blocks_per_sub: %d\n", s.Meta.BlocksPerSub)
	fmt.Fprintf(w, "num_sources: %d\n", s.Meta.NumSources)
	fmt.Fprintf(w, "num_frac_delays: %d\n", s.Meta.NumFracDelays)
	fmt.Fprintf(w, "block_length: %d\n", s.Meta.BlockLength)

	return nil
}

// Show writes block cfg.ShowBlock's raw bytes to w as hex: the `show`
// command.
func Show(s *loader.Subfile, cfg *Config, w io.Writer) error {
	block, err := s.Reader.ReadBlock(cfg.ShowBlock)
	if err != nil {
		return err
	}

	return hexDump(w, block, cfg.HexOffsets)
}

// Get writes key's header value to w: the `get` command.
func Get(s *loader.Subfile, key string, w io.Writer) error {
	v, ok := s.Header.Get(key)
	if !ok {
		return fmt.Errorf("%w: header field %s not present", errs.ErrMissingResource, key)
	}

	fmt.Fprintln(w, v.String())

	return nil
}

// Set stores value under key in s's header (force-adding an unknown
// key when cfg.ForceDelays is set) and persists the header in place:
// the `set` command.
func Set(s *loader.Subfile, cfg *Config, key string, value header.Value) error {
	if err := s.Header.Set(key, value, cfg.ForceDelays); err != nil {
		return err
	}

	return persistHeader(s)
}

// Unset removes key from s's header and persists the header in place:
// the `unset` command.
func Unset(s *loader.Subfile, key string) error {
	s.Header.Unset(key)

	return persistHeader(s)
}

func persistHeader(s *loader.Subfile) error {
	buf, err := s.Header.Serialise()
	if err != nil {
		return err
	}

	n, err := s.File.WriteAt(buf, 0)
	if err != nil {
		return fmt.Errorf("%w: writing header: %v", errs.ErrIoFailure, err)
	}

	if n != len(buf) {
		return fmt.Errorf("%w: short write of header: wrote %d of %d bytes", errs.ErrIoFailure, n, len(buf))
	}

	return nil
}

func hexDump(w io.Writer, block []byte, withOffsets bool) error {
	const width = 16

	for off := 0; off < len(block); off += width {
		end := off + width
		if end > len(block) {
			end = len(block)
		}

		if withOffsets {
			if _, err := fmt.Fprintf(w, "%08x  ", off); err != nil {
				return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
			}
		}

		for _, b := range block[off:end] {
			if _, err := fmt.Fprintf(w, "%02x ", b); err != nil {
				return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
			}
		}

		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrIoFailure, err)
		}
	}

	return nil
}
