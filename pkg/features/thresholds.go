package features

import (
	"math"

	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// Thresholds are cumulative depth targets, one output feature per entry.
// A valid list is non-empty, free of NaN and sorted ascending.
type Thresholds []float64

// Validate reports a config error when the list cannot drive the depth kernel.
func (t Thresholds) Validate() error {
	if len(t) == 0 {
		return errors.New(errors.ErrorTypeConfig, "thresholds must not be empty")
	}
	for i, v := range t {
		if math.IsNaN(v) {
			return errors.Newf(errors.ErrorTypeConfig, "threshold %d is NaN", i).
				WithDetail("threshold_index", i)
		}
		if i > 0 && v < t[i-1] {
			return errors.Newf(errors.ErrorTypeConfig, "thresholds must be sorted ascending: %v > %v at index %d",
				t[i-1], v, i).WithDetail("threshold_index", i)
		}
	}
	return nil
}
