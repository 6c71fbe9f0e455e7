package tablefile

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/arrowfeat/pkg/compression"
	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

func ipcOptions(schema *arrow.Schema, algo compression.Algorithm, mem memory.Allocator) ([]ipc.Option, error) {
	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(mem)}
	switch algo {
	case compression.None:
	case compression.LZ4:
		opts = append(opts, ipc.WithLZ4())
	case compression.Zstd:
		opts = append(opts, ipc.WithZstd())
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "arrow ipc supports lz4 or zstd compression, not %s", algo)
	}
	return opts, nil
}

func writeIPCFile(w io.Writer, tbl arrow.Table, algo compression.Algorithm, mem memory.Allocator) error {
	opts, err := ipcOptions(tbl.Schema(), algo, mem)
	if err != nil {
		return err
	}
	fw, err := ipc.NewFileWriter(w, opts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create arrow file writer")
	}
	if err := writeRecords(tbl, fw.Write); err != nil {
		fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close arrow file writer")
	}
	return nil
}

func writeIPCStream(w io.Writer, tbl arrow.Table, algo compression.Algorithm, mem memory.Allocator) error {
	opts, err := ipcOptions(tbl.Schema(), algo, mem)
	if err != nil {
		return err
	}
	sw := ipc.NewWriter(w, opts...)
	if err := writeRecords(tbl, sw.Write); err != nil {
		sw.Close()
		return err
	}
	if err := sw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close arrow stream writer")
	}
	return nil
}

// writeRecords feeds tbl to write one chunk at a time
func writeRecords(tbl arrow.Table, write func(arrow.Record) error) error {
	tr := array.NewTableReader(tbl, -1)
	defer tr.Release()
	for tr.Next() {
		if err := write(tr.Record()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write record batch")
		}
	}
	return nil
}

func readIPCFile(r ipc.ReadAtSeeker, mem memory.Allocator) (arrow.Table, error) {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid arrow file")
	}
	defer fr.Close()

	recs := make([]arrow.Record, 0, fr.NumRecords())
	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			releaseAll(recs)
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read record batch").
				WithDetail("batch_index", i)
		}
		rec.Retain()
		recs = append(recs, rec)
	}
	return tableFromRecords(fr.Schema(), recs)
}

func readIPCStream(r io.Reader, mem memory.Allocator) (arrow.Table, error) {
	sr, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "invalid arrow stream")
	}
	defer sr.Release()

	var recs []arrow.Record
	for sr.Next() {
		rec := sr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := sr.Err(); err != nil && err != io.EOF {
		releaseAll(recs)
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read arrow stream")
	}
	return tableFromRecords(sr.Schema(), recs)
}
