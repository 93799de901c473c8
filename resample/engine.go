package resample

import (
	"fmt"

	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/reader"
)

// Engine produces resampled output blocks on demand. Only sources with
// a rule in rules are transformed; every other source's line is copied
// verbatim.
type Engine struct {
	r      *reader.Reader
	rules  map[uint16]TransformFunc
	region int
	// sourceOf maps a block-line position to its source id, used to look
	// up rules by id rather than position.
	sourceOf []uint16
}

// New creates a resample Engine. sources is the ordered list of source
// ids at each block-line position (matching metadata.NumSources in
// length); region bounds how many neighbouring samples a TransformFunc
// may see on each side.
func New(r *reader.Reader, sources []uint16, rules []Rule, region int) *Engine {
	byID := make(map[uint16]TransformFunc, len(rules))
	for _, rule := range rules {
		byID[rule.Source] = rule.Transform
	}

	return &Engine{r: r, rules: byID, region: region, sourceOf: sources}
}

// Block computes the resampled data for block idx.
func (e *Engine) Block(idx int64) ([]byte, error) {
	m := e.r.Metadata()

	curBlock, err := e.r.ReadBlock(idx)
	if err != nil {
		return nil, err
	}

	prevBlock, err := e.r.ReadBlockOrNull(idx - 1)
	if err != nil {
		return nil, err
	}

	nextBlock, err := e.r.ReadBlockOrNull(idx + 1)
	if err != nil {
		return nil, err
	}

	out := make([]byte, m.BlockLength)
	copy(out, curBlock)

	samplesPerLine := int(m.Input.SamplesPerLine)
	sampleRate := float64(m.Input.SampleRate)

	for line := 0; line < int(m.NumSources); line++ {
		srcID := e.sourceOf[line]

		transform, ok := e.rules[srcID]
		if !ok {
			continue
		}

		lineOff := m.LineOffset(int64(line))
		outLine := out[lineOff : lineOff+m.SubLineSize]
		ctx := windowCtx{curBlock, prevBlock, nextBlock, idx, int64(line), samplesPerLine}

		for s := 0; s < samplesPerLine; s++ {
			curSample := e.sampleAt(curBlock, int64(line), s)

			prevWin, err := e.window(ctx, s, -1)
			if err != nil {
				return nil, errs.Locate(err, errs.Location{Name: "source", Index: line})
			}

			nextWin, err := e.window(ctx, s, 1)
			if err != nil {
				return nil, errs.Locate(err, errs.Location{Name: "source", Index: line})
			}

			time := (float64(idx-1)*float64(samplesPerLine) + float64(s)) / sampleRate
			result := transform(prevWin, curSample, nextWin, time)

			outLine[s*2] = byte(result.Re)
			outLine[s*2+1] = byte(result.Im)
		}
	}

	return out, nil
}

// sampleAt reads sample index s of line's data within the given block
// buffer.
func (e *Engine) sampleAt(block []byte, line int64, s int) Sample {
	m := e.r.Metadata()
	off := m.LineOffset(line) + int64(s)*2

	return Sample{Re: int8(block[off]), Im: int8(block[off+1])}
}

// windowCtx bundles the context window needs without threading eight
// positional parameters through every call.
type windowCtx struct {
	cur            []byte
	prev, next     []byte
	blockIdx, line int64
	samplesPerLine int
}

// window returns up to e.region samples on the given direction
// (-1 = before, +1 = after) of sample s within line, oldest first.
func (e *Engine) window(a windowCtx, s, direction int) ([]Sample, error) {
	out := make([]Sample, 0, e.region)

	for k := 1; k <= e.region; k++ {
		rel := s + direction*k

		sample, err := e.sampleRelative(a, rel)
		if err != nil {
			return nil, err
		}

		if direction < 0 {
			out = append([]Sample{sample}, out...)
		} else {
			out = append(out, sample)
		}
	}

	return out, nil
}

// sampleRelative resolves a sample index relative to the current line
// (may be negative or >= samplesPerLine) to its source: the current
// line, the previous/next block's line, or — at a subfile edge — the
// head/tail margin excluding its overlap half.
func (e *Engine) sampleRelative(a windowCtx, rel int) (Sample, error) {
	m := e.r.Metadata()

	switch {
	case rel >= 0 && rel < a.samplesPerLine:
		return e.sampleAt(a.cur, a.line, rel), nil

	case rel < 0:
		if a.blockIdx == 1 {
			margin, err := e.r.ReadMarginLine(a.line, true)
			if err != nil {
				return Sample{}, err
			}

			pivot := int(m.MarginSamples / 2)
			idx := pivot + rel
			if idx < 0 {
				return Sample{}, fmt.Errorf("%w: resample region exceeds head margin", errs.ErrOutOfRange)
			}

			return sampleFromBuf(margin, idx), nil
		}

		return e.sampleAt(a.prev, a.line, a.samplesPerLine+rel), nil

	default: // rel >= samplesPerLine
		offset := rel - a.samplesPerLine

		if a.blockIdx == m.BlocksPerSub {
			margin, err := e.r.ReadMarginLine(a.line, false)
			if err != nil {
				return Sample{}, err
			}

			pivot := int(m.MarginSamples / 2)
			idx := pivot + offset
			if idx*2+2 > len(margin) {
				return Sample{}, fmt.Errorf("%w: resample region exceeds tail margin", errs.ErrOutOfRange)
			}

			return sampleFromBuf(margin, idx), nil
		}

		return e.sampleAt(a.next, a.line, offset), nil
	}
}

func sampleFromBuf(buf []byte, idx int) Sample {
	return Sample{Re: int8(buf[idx*2]), Im: int8(buf[idx*2+1])}
}
