package resample

import "math"

// Scale builds a transform that multiplies every sample by s.
func Scale(s float64) TransformFunc {
	return func(_ []Sample, cur Sample, _ []Sample, _ float64) Sample {
		return Sample{
			Re: ClampI8(float64(cur.Re) * s),
			Im: ClampI8(float64(cur.Im) * s),
		}
	}
}

// Linear builds a phase-gradient transform: at time t, amount = initial
// + rate*t samples of shift is decomposed into a whole-sample offset ws
// and fractional magnitude frac, then the two neighbouring samples ws
// samples away are linearly interpolated by frac.
func Linear(rate, initial float64) TransformFunc {
	return func(prev []Sample, cur Sample, next []Sample, t float64) Sample {
		amount := initial + rate*t

		ws := int(math.Trunc(amount))
		frac := math.Abs(amount - float64(ws))

		s1, s2 := neighbours(prev, cur, next, amount, ws)

		return Sample{
			Re: ClampI8(float64(s1.Re) + (float64(s2.Re)-float64(s1.Re))*frac),
			Im: ClampI8(float64(s1.Im) + (float64(s2.Im)-float64(s1.Im))*frac),
		}
	}
}

// neighbours picks the pair of samples Linear interpolates between: for
// amount > 0, forward through next (next[ws-1], next[ws]), with cur
// standing in for the ws==0 boundary; for amount < 0, the symmetric
// case over prev, counted back from its last (nearest) sample since prev
// is oldest first; for amount == 0, both are cur.
func neighbours(prev []Sample, cur Sample, next []Sample, amount float64, ws int) (Sample, Sample) {
	switch {
	case amount > 0:
		if ws <= 0 {
			return cur, at(next, 0)
		}

		return at(next, ws-1), at(next, ws)

	case amount < 0:
		aws := -ws
		last := len(prev) - 1
		if aws <= 0 {
			return cur, at(prev, last)
		}

		return at(prev, last-(aws-1)), at(prev, last-aws)

	default:
		return cur, cur
	}
}

func at(samples []Sample, i int) Sample {
	if i < 0 || i >= len(samples) {
		return Sample{}
	}

	return samples[i]
}
