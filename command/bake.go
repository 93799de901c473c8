package command

import (
	"fmt"

	"github.com/icrar/subtool/delaytable"
	"github.com/icrar/subtool/dsp"
	"github.com/icrar/subtool/errs"
	"github.com/icrar/subtool/loader"
	"github.com/icrar/subtool/resample"
	"github.com/icrar/subtool/writer"
)

// Bake applies the FFT phase-gradient transform to every source in
// cfg.BakeSources (all sources if nil), writes the result to outPath,
// and zeroes the baked sources' frac_delay entries in the output delay
// table: the `bake` command. s should have been opened with
// cache.BakeCapacityBytes (bake reads every block of every selected
// source, thrashing a smaller cache).
func Bake(s *loader.Subfile, cfg *Config, outPath string) error {
	sources := cfg.BakeSources
	if sources == nil {
		sources = sourceList(s.Table)
	}

	samplesPerLine := int(s.Meta.SamplesPerLine)
	streamLen := int(s.Meta.BlocksPerSub) * samplesPerLine

	if streamLen%cfg.BakeFFTSize != 0 {
		return fmt.Errorf("%w: bake fft_size %d does not evenly divide stream length %d",
			errs.ErrInvalidArgument, cfg.BakeFFTSize, streamLen)
	}

	baker := dsp.NewBaker(cfg.BakeFFTSize, float64(s.Meta.SampleRate), dsp.DefaultCentreFrequency)

	outEntries := append([]delaytable.Entry(nil), s.Table.Entries...)
	streams := make(map[uint16][]complex128, len(sources))

	for _, srcID := range sources {
		pos, err := linePosition(s, srcID)
		if err != nil {
			return err
		}

		entry := s.Table.Entries[pos]

		stream, err := extractStream(s, pos, samplesPerLine)
		if err != nil {
			return err
		}

		delaysMicro := make([]float64, len(entry.FracDelay))
		for i, v := range entry.FracDelay {
			delaysMicro[i] = v * 1e6
		}

		for chunkStart := 0; chunkStart < streamLen; chunkStart += cfg.BakeFFTSize {
			chunk := stream[chunkStart : chunkStart+cfg.BakeFFTSize]
			mid := chunkStart + cfg.BakeFFTSize/2
			baker.Block(chunk, delaysMicro, mid, streamLen)
		}

		streams[srcID] = stream

		zeroed := entry
		zeroed.FracDelay = make([]float64, len(entry.FracDelay))
		outEntries[pos] = zeroed
	}

	outTable := &delaytable.Table{Version: s.Table.Version, Entries: outEntries}
	engine := &bakeEngine{s: s, streams: streams, samplesPerLine: samplesPerLine}

	return writer.Write(outPath, passthroughDescriptor(s, outTable, engine))
}

// extractStream reads block line pos across the whole subfile into one
// contiguous complex-sample stream.
func extractStream(s *loader.Subfile, pos, samplesPerLine int) ([]complex128, error) {
	stream := make([]complex128, int(s.Meta.BlocksPerSub)*samplesPerLine)

	lineOff := s.Meta.LineOffset(int64(pos))

	for b := int64(1); b <= s.Meta.BlocksPerSub; b++ {
		block, err := s.Reader.ReadBlock(b)
		if err != nil {
			return nil, err
		}

		line := block[lineOff : lineOff+s.Meta.SubLineSize]
		base := int(b-1) * samplesPerLine

		for i := 0; i < samplesPerLine; i++ {
			stream[base+i] = complex(float64(int8(line[i*2])), float64(int8(line[i*2+1])))
		}
	}

	return stream, nil
}

// bakeEngine serves output blocks with the baked sources' samples
// substituted in and every other source passed through unchanged.
type bakeEngine struct {
	s              *loader.Subfile
	streams        map[uint16][]complex128
	samplesPerLine int
}

func (e *bakeEngine) Block(idx int64) ([]byte, error) {
	cur, err := e.s.Reader.ReadBlock(idx)
	if err != nil {
		return nil, err
	}

	out := append([]byte(nil), cur...)
	m := e.s.Meta

	for srcID, stream := range e.streams {
		pos, err := linePosition(e.s, srcID)
		if err != nil {
			return nil, err
		}

		lineOff := m.LineOffset(int64(pos))
		base := int(idx-1) * e.samplesPerLine

		for i := 0; i < e.samplesPerLine; i++ {
			c := stream[base+i]
			out[lineOff+int64(i)*2] = byte(resample.ClampI8(real(c)))
			out[lineOff+int64(i)*2+1] = byte(resample.ClampI8(imag(c)))
		}
	}

	return out, nil
}
