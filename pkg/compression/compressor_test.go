package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

var allAlgorithms = []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}

func csvPayload() []byte {
	var b strings.Builder
	b.WriteString("q0,q1,w0,w1\n")
	for i := 0; i < 2000; i++ {
		b.WriteString("2.5,3.5,10,10\n")
	}
	return []byte(b.String())
}

func TestStreamRoundTrip(t *testing.T) {
	data := csvPayload()

	for _, algo := range allAlgorithms {
		for _, level := range []Level{Fastest, Default, Best} {
			t.Run(string(algo)+"/"+level.String(), func(t *testing.T) {
				comp, err := NewCompressor(&Config{Algorithm: algo, Level: level})
				require.NoError(t, err)
				assert.Equal(t, algo, comp.Algorithm())

				var buf bytes.Buffer
				w, err := comp.NewWriter(&buf)
				require.NoError(t, err)
				_, err = w.Write(data)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				if algo != None {
					assert.Less(t, buf.Len(), len(data))
				}

				r, err := comp.NewReader(&buf)
				require.NoError(t, err)
				got, err := io.ReadAll(r)
				require.NoError(t, err)
				require.NoError(t, r.Close())
				assert.Equal(t, data, got)
			})
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	algo, err := ParseAlgorithm(" ZSTD ")
	require.NoError(t, err)
	assert.Equal(t, Zstd, algo)

	algo, err = ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, algo)

	_, err = ParseAlgorithm("brotli")
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	_, err = NewCompressor(&Config{Algorithm: "brotli"})
	assert.Error(t, err)

	comp, err := NewCompressor(&Config{Algorithm: "GZIP"})
	require.NoError(t, err)
	assert.Equal(t, Gzip, comp.Algorithm())
	assert.Equal(t, Default, comp.Level())
}

func TestFromExtension(t *testing.T) {
	tests := []struct {
		path string
		algo Algorithm
		rest string
	}{
		{"book.csv.gz", Gzip, "book.csv"},
		{"dir/book.csv.ZST", Zstd, "dir/book.csv"},
		{"book.csv.lz4", LZ4, "book.csv"},
		{"book.csv.sz", Snappy, "book.csv"},
		{"book.csv", None, "book.csv"},
		{"book", None, "book"},
	}
	for _, tt := range tests {
		algo, rest := FromExtension(tt.path)
		assert.Equal(t, tt.algo, algo, tt.path)
		assert.Equal(t, tt.rest, rest, tt.path)
	}
}

func TestGzipReaderRejectsGarbage(t *testing.T) {
	comp, err := NewCompressor(&Config{Algorithm: Gzip})
	require.NoError(t, err)
	_, err = comp.NewReader(strings.NewReader("not gzip"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}
