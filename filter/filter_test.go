package filter

import (
	"testing"

	"github.com/hb9tf/sigsift/sdr"
)

func TestFilterMinPeakDB(t *testing.T) {
	input := make(chan sdr.Segment, 4)
	output := make(chan sdr.Segment, 4)

	input <- sdr.Segment{Row: 0, DBHigh: -40}
	input <- sdr.Segment{Row: 1, DBHigh: -10}
	input <- sdr.Segment{Row: 2, DBHigh: -25}
	input <- sdr.Segment{Row: 3, DBHigh: 3}
	close(input)

	if err := Filter(input, output, []Filterer{&MinPeakDB{DBHigh: -20}}); err != nil {
		t.Fatalf("Filter: %s", err)
	}

	var rows []int
	for s := range output { // Filter closed output, range terminates
		rows = append(rows, s.Row)
	}
	want := []int{1, 3}
	if len(rows) != len(want) {
		t.Fatalf("passed rows %v, want %v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("passed rows %v, want %v", rows, want)
			break
		}
	}
}

func TestFilterNoFilters(t *testing.T) {
	input := make(chan sdr.Segment, 2)
	output := make(chan sdr.Segment, 2)
	input <- sdr.Segment{Row: 7}
	close(input)

	if err := Filter(input, output, nil); err != nil {
		t.Fatalf("Filter: %s", err)
	}
	s, ok := <-output
	if !ok || s.Row != 7 {
		t.Errorf("got (%+v, %t), want the segment passed through", s, ok)
	}
	if _, ok := <-output; ok {
		t.Error("output not closed after input drained")
	}
}
