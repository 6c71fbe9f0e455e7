package features

import (
	"math"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// fellThrough marks a threshold the cumulative depth never exceeded.
const fellThrough = -1

// depthInputs splits batch into quantity and weight columns widened to float64.
// Quantity column j pairs with weight column j+L.
func depthInputs(batch columnar.Batch) (q, w [][]float64, err error) {
	n := batch.NumCols()
	if n == 0 || n%2 != 0 {
		return nil, nil, errors.Newf(errors.ErrorTypeShape,
			"depth feature needs a positive even number of columns, got %d", n).
			WithDetail("num_columns", n)
	}

	levels := n / 2
	q = make([][]float64, levels)
	w = make([][]float64, levels)
	for i := 0; i < n; i++ {
		vals, err := columnar.Float64View(batch.Column(i))
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeShape, "depth feature input column").
				WithDetail("column_index", i)
		}
		if i < levels {
			q[i] = vals
		} else {
			w[i-levels] = vals
		}
	}
	return q, w, nil
}

// crossingLevels fills levels[t] with the depth level at which the running
// sum of q*w first exceeds thresholds[t] for one row, or fellThrough.
func crossingLevels(q, w [][]float64, thresholds Thresholds, row int, levels []int) {
	acc := 0.0
	t := 0
	for j := 0; j < len(q) && t < len(thresholds); j++ {
		acc += q[j][row] * w[j][row]
		for t < len(thresholds) && thresholds[t] < acc {
			levels[t] = j
			t++
		}
	}
	for ; t < len(thresholds); t++ {
		levels[t] = fellThrough
	}
}

// DepthFeature computes one float64 column per threshold. For each row the
// running sum of quantity*weight is walked level by level; a threshold crossed
// at level j yields |q[j][row]-q[0][0]|/q[0][0], and a threshold never crossed
// yields the last level's quantity for that row. q[0][0] is the first row of
// the first quantity column for every row of the batch.
//
// The batch must have a positive even number of int64 or float64 columns.
// Nulls are not inspected. Nothing is allocated before validation passes.
func DepthFeature(batch columnar.Batch, thresholds Thresholds, alloc columnar.Allocator) (columnar.Batch, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	q, w, err := depthInputs(batch)
	if err != nil {
		return nil, err
	}

	rows := batch.NumRows()
	m := len(thresholds)
	last := len(q) - 1

	out := make([][]float64, m)
	for t := range out {
		out[t] = make([]float64, rows)
	}

	if rows > 0 {
		anchor := q[0][0]
		levels := make([]int, m)
		for i := 0; i < rows; i++ {
			crossingLevels(q, w, thresholds, i, levels)
			for t, j := range levels {
				if j == fellThrough {
					out[t][i] = q[last][i]
				} else {
					out[t][i] = math.Abs(q[j][i]-anchor) / anchor
				}
			}
		}
	}

	cols := make([]columnar.Column, m)
	defer columnar.ReleaseColumns(cols...)
	for t := range cols {
		col, err := buildFloat64(alloc, out[t])
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeAllocation, "failed to build "+DepthColumnName(t)).
				WithDetail("feature_index", t)
		}
		cols[t] = col
	}

	result, err := alloc.NewBatch(DepthSchema(m), cols)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAllocation, "failed to assemble depth feature batch")
	}
	return result, nil
}

func buildFloat64(alloc columnar.Allocator, values []float64) (columnar.Column, error) {
	b := alloc.NewFloat64Builder()
	if err := b.Reserve(len(values)); err != nil {
		return nil, err
	}
	if err := b.AppendValues(values); err != nil {
		return nil, err
	}
	return b.Finish()
}
