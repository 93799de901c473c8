// Package remap implements the source-permutation engine: each output
// line is copied from whichever input source a dense source_id ->
// source_id mapping points it at.
package remap

import (
	"fmt"

	"github.com/icrar/subtool/errs"
)

// Mapping is a dense source_id -> source_id map over an ordered list of
// sources, plus the reverse index needed to turn a mapped id back into
// a line position within a block.
type Mapping struct {
	sources []uint16
	index   map[uint16]int
	target  map[uint16]uint16
}

// NewIdentity builds the identity mapping over sources (in block-line
// order): every source maps to itself.
func NewIdentity(sources []uint16) *Mapping {
	index := make(map[uint16]int, len(sources))
	target := make(map[uint16]uint16, len(sources))

	for i, s := range sources {
		index[s] = i
		target[s] = s
	}

	return &Mapping{sources: sources, index: index, target: target}
}

// SetAll points every source at target's line (the --map-all=A flag).
func (m *Mapping) SetAll(target uint16) error {
	if _, ok := m.index[target]; !ok {
		return fmt.Errorf("%w: source %d not present in subfile", errs.ErrMissingResource, target)
	}

	for s := range m.target {
		m.target[s] = target
	}

	return nil
}

// Set points from's line at to's line (one entry of the --map=A:B,...
// flag).
func (m *Mapping) Set(from, to uint16) error {
	if _, ok := m.index[from]; !ok {
		return fmt.Errorf("%w: source %d not present in subfile", errs.ErrMissingResource, from)
	}

	if _, ok := m.index[to]; !ok {
		return fmt.Errorf("%w: source %d not present in subfile", errs.ErrMissingResource, to)
	}

	m.target[from] = to

	return nil
}

// LineIndex returns the input block-line position to copy into output
// line outputLine.
func (m *Mapping) LineIndex(outputLine int) (int, error) {
	if outputLine < 0 || outputLine >= len(m.sources) {
		return 0, fmt.Errorf("%w: output line %d out of range", errs.ErrOutOfRange, outputLine)
	}

	mapped := m.target[m.sources[outputLine]]

	j, ok := m.index[mapped]
	if !ok {
		return 0, fmt.Errorf("%w: mapped source %d not present in subfile", errs.ErrMissingResource, mapped)
	}

	return j, nil
}
