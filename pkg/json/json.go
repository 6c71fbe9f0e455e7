// Package json wraps goccy/go-json for arrowfeat's reports and schema
// documents.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// Marshal is a drop-in replacement for encoding/json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for encoding/json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// NewEncoder returns an encoder that does not escape HTML and, when pretty
// is set, indents with two spaces.
func NewEncoder(w io.Writer, pretty bool) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc
}

// Write encodes v to w as a single JSON document followed by a newline.
// The document is buffered so that w never sees a partial value.
func Write(w io.Writer, v interface{}, pretty bool) error {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		if buf.Cap() <= 1024*1024 { // Don't pool very large buffers
			bufferPool.Put(buf)
		}
	}()

	if err := NewEncoder(buf, pretty).Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads one JSON document from r into v. Numbers decoded into
// interface{} values are kept as json.Number.
func Decode(r io.Reader, v interface{}) error {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}
