package command

import (
	"fmt"
	"os"

	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/loader"
	"github.com/icrar/subtool/remap"
	"github.com/icrar/subtool/repoint"
	"github.com/icrar/subtool/resample"
	"github.com/icrar/subtool/writer"
)

// passthroughDescriptor builds an OutputDescriptor that carries s's
// header, udpmap and margin through unchanged (read lazily from s.File
// at Write time), table as the output delay table, and data as the
// data-section engine — the shape every repoint/replace/resample/bake
// output shares, since none of those commands touch the preamble
// sections other than the delay table itself.
func passthroughDescriptor(s *loader.Subfile, table *delaytable.Table, data writer.BlockEngine) writer.OutputDescriptor {
	return writer.OutputDescriptor{
		Meta:   s.Meta,
		Header: writer.ContentFile(s.File, s.Meta.HeaderOffset),
		DT:     writer.ContentObject(table),
		UDPMap: writer.ContentFile(s.File, s.Meta.UDPMapOffset),
		Margin: writer.ContentFile(s.File, s.Meta.MarginOffset),
		Data:   data,
	}
}

// zeroTable builds a delay table of t's shape with every delay value
// (whole-sample and fractional) reset to zero, preserving rf_input —
// the `--repoint-zero` target, and the "0" half of testable property 7
// (repoint by d then by zero restores the original).
func zeroTable(t *delaytable.Table) *delaytable.Table {
	entries := make([]delaytable.Entry, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = delaytable.Entry{
			RFInput:      e.RFInput,
			NumPointings: 1,
			FracDelay:    make([]float64, len(e.FracDelay)),
		}
	}

	return &delaytable.Table{Version: t.Version, Entries: entries}
}

// Repoint shifts every source's data stream to the whole-sample delay
// a new table specifies and writes the result to outPath: the
// `repoint` command. The new table is cfg.RepointZero's zero table, or
// else read from cfg.DelayTableFilename in cfg.FormatIn.
func Repoint(s *loader.Subfile, cfg *Config, outPath string) error {
	var to *delaytable.Table

	if cfg.RepointZero {
		to = zeroTable(s.Table)
	} else {
		f, err := os.Open(cfg.DelayTableFilename)
		if err != nil {
			return fmt.Errorf("%w: opening %s: %v", errs.ErrIoFailure, cfg.DelayTableFilename, err)
		}
		defer f.Close()

		to, err = loadReplacementTable(f, cfg)
		if err != nil {
			return err
		}
	}

	engine, err := repoint.New(s.Reader, s.Table, to)
	if err != nil {
		return err
	}

	return writer.Write(outPath, passthroughDescriptor(s, to, engine))
}

// Replace builds a source_id -> source_id mapping (identity, overridden
// by cfg.ReplaceMapAll then cfg.ReplaceMap) and writes the remapped
// output to outPath: the `replace` command.
func Replace(s *loader.Subfile, cfg *Config, outPath string) error {
	mapping := remap.NewIdentity(sourceList(s.Table))

	if cfg.ReplaceMapAll != nil {
		if err := mapping.SetAll(*cfg.ReplaceMapAll); err != nil {
			return err
		}
	}

	for _, rule := range cfg.ReplaceMap {
		if err := mapping.Set(rule.From, rule.To); err != nil {
			return err
		}
	}

	engine := remap.New(s.Reader, mapping)

	return writer.Write(outPath, passthroughDescriptor(s, s.Table, engine))
}

// Resample applies cfg.ResampleRules (each a per-source transform) over
// a cfg.ResampleRegion-sample window and writes the result to outPath:
// the `resample` command.
func Resample(s *loader.Subfile, cfg *Config, outPath string) error {
	rules := make([]resample.Rule, len(cfg.ResampleRules))
	for i, r := range cfg.ResampleRules {
		rules[i] = resample.Rule{Source: r.Source, Transform: r.Transform}
	}

	engine := resample.New(s.Reader, sourceList(s.Table), rules, cfg.ResampleRegion)

	return writer.Write(outPath, passthroughDescriptor(s, s.Table, engine))
}

// UpgradeCmd converts s's on-disk delay table from v1 to v2 in place:
// the `upgrade` command.
func UpgradeCmd(s *loader.Subfile) error {
	return s.Upgrade()
}

// Patch overwrites section cfg.PatchSection's raw bytes with data,
// in place on s.File: the `patch` command. data must be exactly the
// section's declared length.
func Patch(s *loader.Subfile, cfg *Config, data []byte) error {
	offset, err := s.Meta.SectionOffset(cfg.PatchSection)
	if err != nil {
		return err
	}

	length, err := s.Meta.SectionLength(cfg.PatchSection)
	if err != nil {
		return err
	}

	if int64(len(data)) != length {
		return fmt.Errorf("%w: patch data is %d bytes, section %v is %d bytes",
			errs.ErrInvalidFormat, len(data), cfg.PatchSection, length)
	}

	n, err := s.File.WriteAt(data, offset)
	if err != nil {
		return fmt.Errorf("%w: writing section %v: %v", errs.ErrIoFailure, cfg.PatchSection, err)
	}

	if n != len(data) {
		return fmt.Errorf("%w: short write patching section %v: wrote %d of %d bytes",
			errs.ErrIoFailure, cfg.PatchSection, n, len(data))
	}

	return nil
}
