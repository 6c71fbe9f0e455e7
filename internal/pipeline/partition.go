package pipeline

// Partition splits n batches into workers contiguous ranges in index order.
// Every range gets n/workers batches and the first n%workers ranges get one
// more. workers must be in [1, n].
func Partition(n, workers int) []Range {
	per := n / workers
	extra := n % workers

	ranges := make([]Range, workers)
	start := 0
	for w := range ranges {
		size := per
		if w < extra {
			size++
		}
		ranges[w] = Range{Start: start, End: start + size}
		start += size
	}
	return ranges
}
