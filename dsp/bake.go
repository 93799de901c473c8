// Package dsp implements the FFT-based fractional-sample delay
// ("bake") transform used by the bake command: per-block phase
// rotation in the frequency domain applies a source's accumulated
// fractional delay directly into its sample stream, after which the
// delay-table entries it consumed are zeroed.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DefaultCentreFrequency is the reference default, in Hz.
const DefaultCentreFrequency = 157000000.0

// Baker applies the FFT phase-gradient transform in fixed-size blocks
// over a complex sample stream. It is not safe for concurrent use.
type Baker struct {
	fft     *fourier.CmplxFFT
	fftSize int

	sampleRate      float64
	centreFrequency float64
	fftLen          float64 // fft_size / sample_rate, in seconds

	freq   []complex128
	scale  float64 // 1/fftSize, gonum does not normalize the inverse transform
}

// NewBaker builds a Baker for fftSize-sample blocks of a stream
// sampled at sampleRate, rotating around centreFrequency.
func NewBaker(fftSize int, sampleRate, centreFrequency float64) *Baker {
	return &Baker{
		fft:             fourier.NewCmplxFFT(fftSize),
		fftSize:         fftSize,
		sampleRate:      sampleRate,
		centreFrequency: centreFrequency,
		fftLen:          float64(fftSize) / sampleRate,
		freq:            make([]complex128, fftSize),
		scale:           1.0 / float64(fftSize),
	}
}

// Block bakes one fftSize-sample block of stream in place, per
// spec.md §4.8: forward FFT, per-bin phase rotation derived from the
// delay that applies at this block's centre sample, inverse FFT.
//
// delays holds the source's per-block microsample delay sequence (a
// frac_delay entry's samples scaled by 1e6); midSample is the absolute sample
// index at the centre of this block and streamLen is the length of
// the full extracted source stream — together they select
// delays[floor(len(delays)*midSample/streamLen)] as the delay in
// effect for the whole block.
func (b *Baker) Block(stream []complex128, delays []float64, midSample, streamLen int) {
	if len(stream) != b.fftSize {
		panic("dsp: block length does not match fft size")
	}

	idx := len(delays) * midSample / streamLen
	if idx >= len(delays) {
		idx = len(delays) - 1
	}

	delaySeconds := delays[idx] / 1e6 / b.sampleRate
	dcOffset := b.centreFrequency * delaySeconds * 2 * math.Pi

	b.fft.Coefficients(b.freq, stream)

	for k := 0; k < b.fftSize; k++ {
		fineOffset := (float64(k) / (float64(b.fftSize) * b.fftLen)) * delaySeconds * 2 * math.Pi
		rotation := -(dcOffset - fineOffset)

		b.freq[k] *= cmplxExp(rotation)
	}

	b.fft.Sequence(stream, b.freq)

	for i := range stream {
		stream[i] *= complex(b.scale, 0)
	}
}

// cmplxExp returns e^(i*theta).
func cmplxExp(theta float64) complex128 {
	return complex(math.Cos(theta), math.Sin(theta))
}
