// Package resample implements the per-sample complex-valued transform
// engine: selected source lines are rewritten sample-by-sample through
// a caller-supplied transform function that sees a windowed
// neighbourhood of surrounding samples; unselected sources pass through
// byte-identically.
package resample

// Sample is one complex 8-bit sample, (re, im).
type Sample struct {
	Re, Im int8
}

// TransformFunc computes a replacement for cur given up to region
// samples immediately before and after it (oldest first) and the
// sample's absolute time in seconds since the start of the subobservation.
type TransformFunc func(prev []Sample, cur Sample, next []Sample, time float64) Sample

// Rule assigns a TransformFunc to one source; sources without a rule
// pass through unchanged.
type Rule struct {
	Source    uint16
	Transform TransformFunc
}

// ClampI8 rounds to nearest integer (half away from zero) and clamps to
// the int8 range. Every built-in TransformFunc uses it, and command's
// bake operation reuses it for the same rounding rule when it zeroes a
// fractional delay's effect on a sample.
func ClampI8(v float64) int8 {
	r := v
	if r > 0 {
		r += 0.5
	} else {
		r -= 0.5
	}

	switch {
	case r > 127:
		return 127
	case r < -128:
		return -128
	default:
		return int8(r)
	}
}
