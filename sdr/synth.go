package sdr

import (
	"context"
	"math"
	"math/rand"
)

const synthSourceName = "synthetic"

// Synthetic is a deterministic sample source for demos and tests: a Gaussian
// noise floor with a constant-envelope tone burst injected into every
// BurstEvery-th buffer. DropEvery simulates receiver overflows.
type Synthetic struct {
	// NoiseAmplitude is the standard deviation of the noise per I/Q
	// component. Zero means a silent floor.
	NoiseAmplitude float64
	// BurstAmplitude is the magnitude of the injected complex tone.
	BurstAmplitude float64
	// BurstEvery injects a burst into every n-th buffer (1 = every buffer,
	// 0 = never).
	BurstEvery int
	// BurstOffset and BurstLen position the burst within the buffer.
	BurstOffset int
	BurstLen    int
	// DropEvery makes every n-th read report ErrOverflow (0 = never).
	DropEvery int
	// Seed for the noise generator.
	Seed int64

	rng  *rand.Rand
	read int64
}

func (s *Synthetic) Name() string {
	return synthSourceName
}

func (s *Synthetic) Read(ctx context.Context, buf []complex64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.Seed))
	}
	s.read++
	if s.DropEvery > 0 && s.read%int64(s.DropEvery) == 0 {
		return ErrOverflow
	}

	for i := range buf {
		buf[i] = complex(
			float32(s.rng.NormFloat64()*s.NoiseAmplitude),
			float32(s.rng.NormFloat64()*s.NoiseAmplitude),
		)
	}
	if s.BurstEvery > 0 && s.read%int64(s.BurstEvery) == 0 {
		end := s.BurstOffset + s.BurstLen
		if end > len(buf) {
			end = len(buf)
		}
		for i := s.BurstOffset; i < end; i++ {
			// Constant-envelope tone, 1/16th of the sample rate.
			phase := 2 * math.Pi * float64(i) / 16
			buf[i] += complex(
				float32(s.BurstAmplitude*math.Cos(phase)),
				float32(s.BurstAmplitude*math.Sin(phase)),
			)
		}
	}
	return nil
}

func (s *Synthetic) Close() error {
	return nil
}
