// Package filter provides post-detection triage filters applied to the
// segment stream between the detector and a sink.
package filter

import "github.com/hb9tf/sigsift/sdr"

type Filterer interface {
	ShouldIgnore(*sdr.Segment) bool
}

// Filter copies segments from input to output, dropping those any filter
// wants ignored. It returns when input is closed and closes output.
func Filter(input <-chan sdr.Segment, output chan<- sdr.Segment, filters []Filterer) error {
	defer close(output)
	for s := range input {
		skip := false
		for _, f := range filters {
			if f.ShouldIgnore(&s) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		output <- s
	}
	return nil
}

// MinPeakDB drops segments whose peak decimated power stays below a floor,
// a second triage gate on top of the detector's evidence count.
type MinPeakDB struct {
	DBHigh float64
}

func (f *MinPeakDB) ShouldIgnore(s *sdr.Segment) bool {
	return s.DBHigh < f.DBHigh
}
