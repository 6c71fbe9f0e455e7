// Package arrowfeat computes per-row features over Apache Arrow record
// batches and tables.
//
// The main feature is order book depth. An input batch holds 2*L numeric
// columns: L quantity columns followed by L weight columns, where level j's
// quantity pairs with column j+L. For each row the cumulative sum of
// quantity*weight is walked level by level, and for every threshold in an
// ascending list the first level whose cumulative sum exceeds it is recorded
// as the relative distance of that level's quantity from the batch's anchor
// (row 0, column 0). Thresholds never crossed take the last level's quantity.
//
// # Architecture
//
// Kernels are written against a small columnar capability interface
// (pkg/columnar) rather than Arrow directly:
//
//   - pkg/features: depth and odd-count kernels plus table entry points
//   - internal/pipeline: batch-parallel driver with static partitioning and
//     ordered merge
//   - pkg/columnar/arrowcol: zero-copy Arrow implementation of the interface
//   - pkg/arrowutils: Arrow-facing API (ExtractDepthFeature,
//     ExtractDepthFeatureFromTable, ProcessRecordBatch)
//   - pkg/tablefile: Arrow IPC, Parquet, CSV and Avro table files
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/ajitpratap0/arrowfeat/pkg/arrowutils"
//	    "github.com/ajitpratap0/arrowfeat/pkg/features"
//	    "github.com/ajitpratap0/arrowfeat/pkg/tablefile"
//	)
//
//	tbl, err := tablefile.Read(ctx, "book.parquet", tablefile.ReadOptions{})
//	if err != nil {
//	    return err
//	}
//	defer tbl.Release()
//
//	out, err := arrowutils.ExtractDepthFeatureFromTable(ctx, tbl, []float64{15, 40},
//	    features.WithMaxWorkers(4))
//	if err != nil {
//	    return err
//	}
//	defer out.Release()
//
// Output chunk i is always derived from input chunk i, whatever the worker
// count.
//
// # Command Line
//
//	arrowfeat generate -o book.arrow --batches 8 --rows 5000 --columns 6
//	arrowfeat depth -i book.arrow -o features.parquet --thresholds 0.1,0.5,1,2,5
//	arrowfeat bench --worker-counts 1,2,4,8
//
// # Errors
//
// All errors are *errors.Error values (pkg/errors) carrying a type: shape,
// config, allocation, empty_input, validation, data, file or internal. Use
// errors.IsType to branch on them.
package arrowfeat
