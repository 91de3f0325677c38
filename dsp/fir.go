// Package dsp holds the numeric leaves of the detection pipeline: FIR design,
// instantaneous power and zero-phase decimation.
package dsp

import (
	"fmt"
	"math"
)

// kaiserBeta is the shape parameter of the Kaiser window used for the
// anti-alias kernel. Close to rectangular, which keeps the passband flat for
// the short kernels used here.
const kaiserBeta = 0.5

// LowpassKernel designs the anti-alias FIR kernel for a decimation by dec:
// 2*dec+1 taps, cutoff at 1/dec of the input Nyquist rate, Kaiser window,
// taps normalized to unity gain at DC.
//
// The kernel is symmetric (linear phase) with an integer group delay of dec
// samples, which DecimatePower compensates for.
func LowpassKernel(dec int) ([]float64, error) {
	if dec < 1 {
		return nil, fmt.Errorf("decimation factor must be at least 1, got %d", dec)
	}

	ntaps := 2*dec + 1
	cutoff := 1 / float64(dec) // fraction of Nyquist
	half := float64(ntaps-1) / 2

	kernel := make([]float64, ntaps)
	sum := 0.0
	for i := range kernel {
		m := float64(i) - half
		kernel[i] = cutoff * sinc(cutoff*m) * kaiser(i, ntaps, kaiserBeta)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel, nil
}

// sinc is the normalized sinc function sin(pi*x)/(pi*x).
func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// kaiser evaluates the i-th point of an n-point Kaiser window.
func kaiser(i, n int, beta float64) float64 {
	r := 2*float64(i)/float64(n-1) - 1
	return besselI0(beta*math.Sqrt(1-r*r)) / besselI0(beta)
}

// besselI0 is the zeroth-order modified Bessel function of the first kind,
// evaluated with its power series. Converges quickly for the small arguments
// a Kaiser window produces.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2
	for k := 1; k < 64; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < sum*1e-16 {
			break
		}
	}
	return sum
}
