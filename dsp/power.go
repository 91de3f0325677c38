package dsp

// Power writes the instantaneous power (squared magnitude, I²+Q²) of each
// complex sample into dst. dst and src must have the same length.
func Power(dst []float64, src []complex64) {
	for i, s := range src {
		re := float64(real(s))
		im := float64(imag(s))
		dst[i] = re*re + im*im
	}
}
