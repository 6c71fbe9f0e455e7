package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		workers int
		want    []Range
	}{
		{"even", 4, 2, []Range{{0, 2}, {2, 4}}},
		{"remainder goes first", 7, 3, []Range{{0, 3}, {3, 5}, {5, 7}}},
		{"one worker", 5, 1, []Range{{0, 5}}},
		{"one batch each", 3, 3, []Range{{0, 1}, {1, 2}, {2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Partition(tt.n, tt.workers))
		})
	}
}

func TestPartitionCoversEveryIndexOnce(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for workers := 1; workers <= n; workers++ {
			ranges := Partition(n, workers)
			assert.Len(t, ranges, workers)

			next := 0
			for _, r := range ranges {
				assert.Equal(t, next, r.Start)
				assert.GreaterOrEqual(t, r.Len(), n/workers)
				assert.LessOrEqual(t, r.Len(), n/workers+1)
				next = r.End
			}
			assert.Equal(t, n, next)
		}
	}
}
