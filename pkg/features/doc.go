// Package features implements the columnar feature kernels.
//
// # Depth Feature
//
// A depth batch holds 2L numeric columns: L quantity columns followed by L
// weight columns, quantity j paired with weight j+L. For each row the kernel
// walks levels 0..L-1 accumulating quantity*weight and, for each threshold,
// records where the running sum first exceeds it:
//
//	thresholds := features.Thresholds{15, 40}
//	out, err := features.DepthFeature(batch, thresholds, columnar.NewMemAllocator())
//	// out has columns feature_depth_0 and feature_depth_1
//
// DepthTable runs the same kernel over many batches in parallel and keeps
// input order.
//
// # Odd Count
//
// CountPositiveOdd reads exactly four int64 columns and counts the positive
// odd values in each row, skipping nulls.
//
// # Errors
//
// Kernels return *errors.Error values typed shape, config or allocation.
// Table-level calls add empty_input and annotate batch failures with a
// batch_index detail.
package features
