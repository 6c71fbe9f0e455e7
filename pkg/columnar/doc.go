// Package columnar is the seam between the feature kernels and the columnar
// library that stores the data.
//
// # Overview
//
// Kernels only need a handful of capabilities: read a typed column by index,
// build a new typed column, assemble columns into a batch and assemble batches
// into a table. This package names those capabilities as interfaces and ships
// a slice-backed implementation used by tests and the synthetic generator.
// The Arrow-backed implementation lives in the arrowcol subpackage.
//
// # Types
//
//   - Column, Int64Column, Float64Column: immutable typed sequences
//   - Batch: equal-length columns plus a Schema
//   - Int64Builder, Float64Builder, Allocator: construction of new data
//   - Table: ordered batches that share one schema
//
// # Basic Usage
//
//	schema := columnar.NewSchema(
//		columnar.Field{Name: "q0", Type: columnar.Float64},
//		columnar.Field{Name: "w0", Type: columnar.Float64},
//	)
//	batch, err := columnar.NewBatch(schema, []columnar.Column{
//		columnar.NewFloat64Column([]float64{1, 2}, nil),
//		columnar.NewFloat64Column([]float64{3, 4}, nil),
//	})
//
// # Nulls
//
// Columns report validity through IsNull and NullN. Raw value slices never
// hide null slots; callers decide whether to honour validity.
package columnar
