package tablefile

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/arrowfeat/pkg/compression"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
	"github.com/ajitpratap0/arrowfeat/pkg/json"
)

const avroRecordName = "row"

type avroField struct {
	Name string      `json:"name"`
	Type interface{} `json:"type"`
}

type avroSchema struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

func getAvroCompression(algo compression.Algorithm) (string, error) {
	switch algo {
	case compression.None:
		return goavro.CompressionNullLabel, nil
	case compression.Snappy:
		return goavro.CompressionSnappyLabel, nil
	case compression.Deflate:
		return goavro.CompressionDeflateLabel, nil
	default:
		return "", errors.Newf(errors.ErrorTypeValidation, "avro supports snappy or deflate compression, not %s", algo)
	}
}

// arrowToAvroSchema maps int64/float64 fields to long/double, nullable
// fields to a union with null.
func arrowToAvroSchema(s *arrow.Schema) (string, error) {
	fields := make([]avroField, s.NumFields())
	for i, f := range s.Fields() {
		var typ string
		switch f.Type.ID() {
		case arrow.INT64:
			typ = "long"
		case arrow.FLOAT64:
			typ = "double"
		default:
			return "", errors.Newf(errors.ErrorTypeValidation, "avro output supports int64 and float64 columns, %s is %s",
				f.Name, f.Type)
		}
		if f.Nullable {
			fields[i] = avroField{Name: f.Name, Type: []string{"null", typ}}
		} else {
			fields[i] = avroField{Name: f.Name, Type: typ}
		}
	}

	doc, err := json.Marshal(avroSchema{Type: "record", Name: avroRecordName, Fields: fields})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode avro schema")
	}
	return string(doc), nil
}

func writeAvro(w io.Writer, tbl arrow.Table, algo compression.Algorithm) error {
	compressionName, err := getAvroCompression(algo)
	if err != nil {
		return err
	}
	schema, err := arrowToAvroSchema(tbl.Schema())
	if err != nil {
		return err
	}
	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "failed to create avro codec")
	}
	ocfWriter, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: compressionName,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create avro writer")
	}

	fields := tbl.Schema().Fields()
	return writeRecords(tbl, func(rec arrow.Record) error {
		return ocfWriter.Append(recordToAvroNative(rec, fields))
	})
}

func recordToAvroNative(rec arrow.Record, fields []arrow.Field) []interface{} {
	rows := make([]interface{}, rec.NumRows())
	for i := range rows {
		native := make(map[string]interface{}, len(fields))
		for c, f := range fields {
			col := rec.Column(c)
			if col.IsNull(i) {
				native[f.Name] = nil
				continue
			}
			var v interface{}
			var typ string
			switch a := col.(type) {
			case *array.Int64:
				v, typ = a.Value(i), "long"
			case *array.Float64:
				v, typ = a.Value(i), "double"
			}
			if f.Nullable {
				v = goavro.Union(typ, v)
			}
			native[f.Name] = v
		}
		rows[i] = native
	}
	return rows
}

// avroToArrowSchema accepts records of long, int, double and float fields,
// optionally in a union with null.
func avroToArrowSchema(doc string) (*arrow.Schema, error) {
	var s avroSchema
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid avro schema")
	}
	if s.Type != "record" {
		return nil, errors.Newf(errors.ErrorTypeValidation, "avro input must hold records, got %s", s.Type)
	}

	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		typ, nullable := f.Type, false
		if union, ok := f.Type.([]interface{}); ok {
			typ = nil
			for _, branch := range union {
				if branch == "null" {
					nullable = true
				} else {
					typ = branch
				}
			}
		}

		var dt arrow.DataType
		switch typ {
		case "long", "int":
			dt = arrow.PrimitiveTypes.Int64
		case "double", "float":
			dt = arrow.PrimitiveTypes.Float64
		default:
			return nil, errors.Newf(errors.ErrorTypeValidation, "avro field %s has unsupported type %v", f.Name, f.Type)
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

func readAvro(r io.Reader, mem memory.Allocator) (arrow.Table, error) {
	ocfReader, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid avro file")
	}
	schema, err := avroToArrowSchema(ocfReader.Codec().Schema())
	if err != nil {
		return nil, err
	}

	rb := array.NewRecordBuilder(mem, schema)
	defer rb.Release()

	var recs []arrow.Record
	rows := 0
	for ocfReader.Scan() {
		datum, err := ocfReader.Read()
		if err != nil {
			releaseAll(recs)
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read avro datum")
		}
		native, ok := datum.(map[string]interface{})
		if !ok {
			releaseAll(recs)
			return nil, errors.Newf(errors.ErrorTypeData, "avro datum is %T, not a record", datum)
		}
		for i, f := range schema.Fields() {
			appendAvroValue(rb.Field(i), unwrapUnion(native[f.Name]))
		}

		rows++
		if rows == csvChunkRows {
			recs = append(recs, rb.NewRecord())
			rows = 0
		}
	}
	if err := ocfReader.Err(); err != nil {
		releaseAll(recs)
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan avro file")
	}
	if rows > 0 || len(recs) == 0 {
		recs = append(recs, rb.NewRecord())
	}
	return tableFromRecords(schema, recs)
}

func unwrapUnion(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		for _, inner := range m {
			return inner
		}
	}
	return v
}

func appendAvroValue(b array.Builder, v interface{}) {
	switch b := b.(type) {
	case *array.Int64Builder:
		switch n := v.(type) {
		case int64:
			b.Append(n)
		case int32:
			b.Append(int64(n))
		default:
			b.AppendNull()
		}
	case *array.Float64Builder:
		switch n := v.(type) {
		case float64:
			b.Append(n)
		case float32:
			b.Append(float64(n))
		default:
			b.AppendNull()
		}
	}
}
