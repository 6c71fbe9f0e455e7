// Package arrowutils exposes the feature kernels over Apache Arrow records
// and tables.
package arrowutils

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
	"github.com/ajitpratap0/arrowfeat/pkg/columnar/arrowcol"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
	"github.com/ajitpratap0/arrowfeat/pkg/features"
)

// ProcessRecordBatch counts, per row, the positive odd values across the four
// int64 columns of rec and returns the counts as a single-chunk column.
func ProcessRecordBatch(rec arrow.Record) (*arrow.Chunked, error) {
	batch, err := arrowcol.Wrap(rec)
	if err != nil {
		return nil, err
	}
	defer columnar.ReleaseBatches(batch)

	alloc := arrowcol.NewAllocator(nil)
	col, err := features.CountPositiveOdd(batch, alloc)
	if err != nil {
		return nil, err
	}
	defer columnar.ReleaseColumns(col)

	arr, err := alloc.ToArray(col)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	return arrow.NewChunked(arr.DataType(), []arrow.Array{arr}), nil
}

// ExtractDepthFeature computes the depth feature of one record. The result has
// one float64 column per threshold, named feature_depth_<i>.
func ExtractDepthFeature(rec arrow.Record, thresholds []float64) (arrow.Record, error) {
	if err := features.Thresholds(thresholds).Validate(); err != nil {
		return nil, err
	}
	batch, err := arrowcol.Wrap(rec)
	if err != nil {
		return nil, err
	}
	defer columnar.ReleaseBatches(batch)

	alloc := arrowcol.NewAllocator(nil)
	out, err := features.DepthFeature(batch, thresholds, alloc)
	if err != nil {
		return nil, err
	}
	defer columnar.ReleaseBatches(out)

	return arrowcol.Record(out, alloc)
}

// ExtractDepthFeatureFromTable computes the depth feature of every record
// batch of tbl in parallel. Output chunks follow the input chunk order. The
// worker pool is sized by features.WithMaxWorkers, or by available
// parallelism when unset.
func ExtractDepthFeatureFromTable(ctx context.Context, tbl arrow.Table, thresholds []float64, opts ...features.TableOption) (arrow.Table, error) {
	if err := features.Thresholds(thresholds).Validate(); err != nil {
		return nil, err
	}
	if tbl == nil {
		return nil, errors.New(errors.ErrorTypeEmptyInput, "table is nil")
	}

	batches, err := arrowcol.FromTable(tbl)
	if err != nil {
		return nil, err
	}
	defer arrowcol.Release(batches)

	alloc := arrowcol.NewAllocator(nil)
	opts = append([]features.TableOption{features.WithAllocator(alloc)}, opts...)

	out, err := features.DepthTable(ctx, batches, thresholds, opts...)
	if err != nil {
		return nil, err
	}
	defer columnar.ReleaseBatches(out.Batches()...)

	return arrowcol.ToTable(out, alloc)
}

// CountPositiveOddTable runs ProcessRecordBatch over every record batch of tbl
// in parallel and returns a single-column odd_count table.
func CountPositiveOddTable(ctx context.Context, tbl arrow.Table, opts ...features.TableOption) (arrow.Table, error) {
	if tbl == nil {
		return nil, errors.New(errors.ErrorTypeEmptyInput, "table is nil")
	}

	batches, err := arrowcol.FromTable(tbl)
	if err != nil {
		return nil, err
	}
	defer arrowcol.Release(batches)

	alloc := arrowcol.NewAllocator(nil)
	opts = append([]features.TableOption{features.WithAllocator(alloc)}, opts...)

	out, err := features.OddCountTable(ctx, batches, opts...)
	if err != nil {
		return nil, err
	}
	defer columnar.ReleaseBatches(out.Batches()...)

	return arrowcol.ToTable(out, alloc)
}
