package features

import (
	"strconv"

	"github.com/ajitpratap0/arrowfeat/pkg/columnar"
)

const (
	// DepthColumnPrefix prefixes every depth feature column name
	DepthColumnPrefix = "feature_depth_"
	// OddCountColumn names the single column of an odd-count batch
	OddCountColumn = "odd_count"
	// OddCountColumns is the number of int64 columns the odd-count kernel reads
	OddCountColumns = 4
)

// DepthColumnName returns the output column name for threshold i
func DepthColumnName(i int) string {
	return DepthColumnPrefix + strconv.Itoa(i)
}

// DepthSchema returns the output schema for m thresholds
func DepthSchema(m int) *columnar.Schema {
	fields := make([]columnar.Field, m)
	for i := range fields {
		fields[i] = columnar.Field{Name: DepthColumnName(i), Type: columnar.Float64}
	}
	return columnar.NewSchema(fields...)
}

// OddCountSchema returns the schema of a batch produced by OddCountBatch
func OddCountSchema() *columnar.Schema {
	return columnar.NewSchema(columnar.Field{Name: OddCountColumn, Type: columnar.Int64})
}
