// Package repoint implements the integer-sample time shift engine: for
// each source, re-align its data stream so it carries the whole-sample
// delay a new delay table specifies, sourcing the shifted-in samples
// from the adjacent block or, at a subfile edge, from the margin.
package repoint

import (
	"fmt"

	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/reader"
)

const sampleBytes = 2 // one complex 8-bit sample = (re, im)

// Engine computes repointed output blocks on demand. Each call to Block
// re-derives its three-block window from the reader's cache, so the
// sliding window described in the design notes falls out of repeated
// cached reads rather than explicit carried state.
type Engine struct {
	r        *reader.Reader
	from, to *delaytable.Table
}

// New creates a repoint Engine shifting from's delays to to's. from and
// to must have one entry per source, in source order.
func New(r *reader.Reader, from, to *delaytable.Table) (*Engine, error) {
	n := int(r.Metadata().NumSources)
	if len(from.Entries) != n || len(to.Entries) != n {
		return nil, fmt.Errorf("%w: delay tables must have %d entries, got %d and %d", errs.ErrInvalidFormat, n, len(from.Entries), len(to.Entries))
	}

	return &Engine{r: r, from: from, to: to}, nil
}

// Block computes the repointed data for block idx (1..BlocksPerSub).
func (e *Engine) Block(idx int64) ([]byte, error) {
	m := e.r.Metadata()

	cur, err := e.r.ReadBlock(idx)
	if err != nil {
		return nil, err
	}

	prev, err := e.r.ReadBlockOrNull(idx - 1)
	if err != nil {
		return nil, err
	}

	next, err := e.r.ReadBlockOrNull(idx + 1)
	if err != nil {
		return nil, err
	}

	out := make([]byte, m.BlockLength)

	for src := int64(0); src < int64(m.NumSources); src++ {
		if err := e.fillLine(out, cur, prev, next, idx, src); err != nil {
			return nil, errs.Locate(err, errs.Location{Name: "source", Index: int(src)})
		}
	}

	return out, nil
}

func (e *Engine) fillLine(out, cur, prev, next []byte, blockIdx, src int64) error {
	m := e.r.Metadata()

	fromEntry, toEntry := e.from.Entries[src], e.to.Entries[src]
	shift := int64(fromEntry.WSDelay) // M
	target := int64(toEntry.WSDelay)  // T
	n := target - shift               // N

	samplesPerLine := int64(m.Input.SamplesPerLine)

	headLen, tailLen := int64(0), int64(0)
	if n > 0 {
		headLen = n
	} else if n < 0 {
		tailLen = -n
	}

	bodyLen := samplesPerLine - headLen - tailLen

	lineOff := m.LineOffset(src)
	curLine := cur[lineOff : lineOff+m.SubLineSize]
	outLine := out[lineOff : lineOff+m.SubLineSize]

	copy(outLine[headLen*sampleBytes:(headLen+bodyLen)*sampleBytes], curLine[tailLen*sampleBytes:(tailLen+bodyLen)*sampleBytes])

	if headLen > 0 {
		headBytes, err := e.headSource(prev, blockIdx, src, headLen, shift, n)
		if err != nil {
			return err
		}

		copy(outLine[0:headLen*sampleBytes], headBytes)
	}

	if tailLen > 0 {
		tailBytes, err := e.tailSource(next, blockIdx, src, tailLen, shift, n)
		if err != nil {
			return err
		}

		copy(outLine[(headLen+bodyLen)*sampleBytes:], tailBytes)
	}

	return nil
}

// headSource returns the headLen samples (as raw bytes) to place at the
// start of the output line: for block 1, drawn from the head margin at
// the range the design specifies; otherwise the previous block's last
// headLen samples.
func (e *Engine) headSource(prev []byte, blockIdx, src, headLen, shift, n int64) ([]byte, error) {
	m := e.r.Metadata()

	if blockIdx == 1 {
		margin, err := e.r.ReadMarginLine(src, true)
		if err != nil {
			return nil, err
		}

		pivot := m.MarginSamples / 2
		lo := pivot - n - shift - 1
		hi := pivot - shift - 1

		return marginSlice(margin, lo, hi)
	}

	samplesPerLine := int64(m.Input.SamplesPerLine)
	lineOff := m.LineOffset(src)
	prevLine := prev[lineOff : lineOff+m.SubLineSize]

	return prevLine[(samplesPerLine-headLen)*sampleBytes : samplesPerLine*sampleBytes], nil
}

// tailSource returns the tailLen samples to place at the end of the
// output line: for the last block, drawn from the tail margin;
// otherwise the next block's first tailLen samples.
//
// The reference implementation instead compares blockId < BLOCKS_PER_SUB-1,
// which reads as an off-by-one: it would pull "next" data for the
// second-to-last block, not just the last one, and there is no block
// beyond BLOCKS_PER_SUB to source from for the actual last block. This
// engine follows the documented contract — margin iff blockIdx ==
// BlocksPerSub — rather than reproducing that apparent bug.
func (e *Engine) tailSource(next []byte, blockIdx, src, tailLen, shift, n int64) ([]byte, error) {
	m := e.r.Metadata()

	if blockIdx == m.BlocksPerSub {
		margin, err := e.r.ReadMarginLine(src, false)
		if err != nil {
			return nil, err
		}

		pivot := m.MarginSamples / 2
		lo := pivot - shift + 1
		hi := pivot - n - shift + 1

		return marginSlice(margin, lo, hi)
	}

	lineOff := m.LineOffset(src)
	nextLine := next[lineOff : lineOff+m.SubLineSize]

	return nextLine[0 : tailLen*sampleBytes], nil
}

func marginSlice(margin []byte, lo, hi int64) ([]byte, error) {
	if lo < 0 || hi*sampleBytes > int64(len(margin)) || lo > hi {
		return nil, fmt.Errorf("%w: margin range [%d, %d) out of bounds (buffer holds %d samples)",
			errs.ErrOutOfRange, lo, hi, int64(len(margin))/sampleBytes)
	}

	return margin[lo*sampleBytes : hi*sampleBytes], nil
}
