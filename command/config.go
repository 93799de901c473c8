// Package command implements the per-operation orchestration spec.md
// §9 names: a Config record built from functional options (mirroring
// the teacher's Option[T]/Func[T]/Apply pattern) plus one function per
// CLI command, each composing loader/delaytable/repoint/remap/
// resample/dsp/writer/export to perform that command's work. Flag
// parsing itself is out of scope (spec.md §1, §6) — a front end builds
// a Config from parsed flags and calls the matching function here.
package command

import (
	"fmt"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/format"
	"github.com/icrar/subtool/internal/options"
	"github.com/icrar/subtool/resample"
)

func errInvalidFFTSize(n int) error {
	return fmt.Errorf("%w: bake fft size must be a positive power of two, got %d", errs.ErrInvalidArgument, n)
}

// ReplaceRule is one entry of a --map=A:B,... flag.
type ReplaceRule struct {
	From, To uint16
}

// ResampleRule assigns a resample.TransformFunc to one source, per a
// --resample rule spec.
type ResampleRule struct {
	Source    uint16
	Transform resample.TransformFunc
}

// Config is the configuration record spec.md §9 specifies: every field
// a command may read, populated only as that command needs it.
type Config struct {
	FormatIn  format.TableFormat // auto|csv|bin
	FormatOut format.TableFormat // pretty|csv|bin (dt/show output)

	SelectedSources []uint16 // nil means "all"

	NumFracDelays int // 0 means "auto" (derive from metadata)
	NumSamples    int
	ShowBlock     int64

	DelayTableFilename string // "" means none

	RepointZero bool
	ForceDelays bool

	ReplaceMap    []ReplaceRule
	ReplaceMapAll *uint16 // nil means unset

	ResampleRules  []ResampleRule
	ResampleRegion int

	DumpSection    format.Section
	HasDumpSection bool
	DumpBlock      int64
	HasDumpBlock   bool
	DumpSource     uint16
	HasDumpSource  bool
	DumpWithMargin bool
	DumpCompress   format.CompressionType

	BakeFFTSize int
	BakeSources []uint16 // nil means "all"

	PatchSection format.Section
	HexOffsets   bool
}

// Option configures a Config.
type Option = options.Option[*Config]

// NewConfig builds a Config from opts, applied in order. Fields left
// untouched by any option keep the defaults set below (auto input
// format, pretty output format, a 1024-point bake FFT, no dump
// compression) or else Config's zero value, which for the remaining
// fields is their "unset/auto/all" meaning.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		FormatIn:     format.FormatAuto,
		FormatOut:    format.FormatPretty,
		BakeFFTSize:  1024,
		DumpCompress: format.CompressionNone,
	}

	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func WithFormatIn(f format.TableFormat) Option {
	return options.NoError(func(c *Config) { c.FormatIn = f })
}

func WithFormatOut(f format.TableFormat) Option {
	return options.NoError(func(c *Config) { c.FormatOut = f })
}

func WithSelectedSources(sources []uint16) Option {
	return options.NoError(func(c *Config) { c.SelectedSources = sources })
}

func WithNumFracDelays(n int) Option {
	return options.NoError(func(c *Config) { c.NumFracDelays = n })
}

func WithNumSamples(n int) Option {
	return options.NoError(func(c *Config) { c.NumSamples = n })
}

func WithShowBlock(idx int64) Option {
	return options.NoError(func(c *Config) { c.ShowBlock = idx })
}

func WithDelayTableFilename(path string) Option {
	return options.NoError(func(c *Config) { c.DelayTableFilename = path })
}

func WithRepointZero(zero bool) Option {
	return options.NoError(func(c *Config) { c.RepointZero = zero })
}

func WithForceDelays(force bool) Option {
	return options.NoError(func(c *Config) { c.ForceDelays = force })
}

func WithReplaceMap(rules []ReplaceRule) Option {
	return options.NoError(func(c *Config) { c.ReplaceMap = rules })
}

func WithReplaceMapAll(target uint16) Option {
	return options.NoError(func(c *Config) { c.ReplaceMapAll = &target })
}

func WithResampleRules(rules []ResampleRule) Option {
	return options.NoError(func(c *Config) { c.ResampleRules = rules })
}

func WithResampleRegion(region int) Option {
	return options.NoError(func(c *Config) { c.ResampleRegion = region })
}

func WithDumpSection(s format.Section) Option {
	return options.NoError(func(c *Config) { c.DumpSection, c.HasDumpSection = s, true })
}

func WithDumpBlock(idx int64) Option {
	return options.NoError(func(c *Config) { c.DumpBlock, c.HasDumpBlock = idx, true })
}

func WithDumpSource(id uint16) Option {
	return options.NoError(func(c *Config) { c.DumpSource, c.HasDumpSource = id, true })
}

func WithDumpWithMargin(with bool) Option {
	return options.NoError(func(c *Config) { c.DumpWithMargin = with })
}

func WithDumpCompress(comp format.CompressionType) Option {
	return options.NoError(func(c *Config) { c.DumpCompress = comp })
}

func WithBakeFFTSize(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 || n&(n-1) != 0 {
			return errInvalidFFTSize(n)
		}

		c.BakeFFTSize = n

		return nil
	})
}

func WithBakeSources(sources []uint16) Option {
	return options.NoError(func(c *Config) { c.BakeSources = sources })
}

func WithPatchSection(s format.Section) Option {
	return options.NoError(func(c *Config) { c.PatchSection = s })
}

func WithHexOffsets(hex bool) Option {
	return options.NoError(func(c *Config) { c.HexOffsets = hex })
}
