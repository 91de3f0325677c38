package dsp

import "fmt"

// DecimatePower low-pass filters src with the given symmetric odd-length
// kernel and downsamples by dec, writing the result into dst in place.
//
// The convolution is centered on each retained sample, which cancels the
// kernel's group delay: the output is zero-phase and the decimated time axis
// stays aligned with the input's segment boundaries.
//
// Edge policy: the input is extended by symmetric reflection, x[-i] = x[i]
// and x[n-1+i] = x[n-1-i]. The policy only affects the first and last
// half-kernel of output samples and is covered by tests.
func DecimatePower(dst, src, kernel []float64, dec int) error {
	if dec < 1 {
		return fmt.Errorf("decimation factor must be at least 1, got %d", dec)
	}
	if len(kernel)%2 == 0 {
		return fmt.Errorf("kernel length must be odd, got %d", len(kernel))
	}
	if len(src) != len(dst)*dec {
		return fmt.Errorf("input length %d does not match output length %d x decimation %d", len(src), len(dst), dec)
	}
	// Reflection needs at least half a kernel of real samples on each side.
	if len(src) <= len(kernel)/2 {
		return fmt.Errorf("input length %d is too short for a %d-tap kernel", len(src), len(kernel))
	}

	n := len(src)
	half := len(kernel) / 2
	for out := range dst {
		center := out * dec
		acc := 0.0
		for k, tap := range kernel {
			idx := center + k - half
			if idx < 0 {
				idx = -idx
			} else if idx >= n {
				idx = 2*n - 2 - idx
			}
			acc += tap * src[idx]
		}
		dst[out] = acc
	}
	return nil
}
