package performance

import (
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/ajitpratap0/arrowfeat/pkg/errors"
)

// StartCPUProfile writes a CPU profile to path until the returned stop
// function is called.
func StartCPUProfile(path string) (func() error, error) {
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the CLI
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create cpu profile").WithDetail("path", path)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to start cpu profile")
	}
	return func() error {
		pprof.StopCPUProfile()
		return f.Close()
	}, nil
}

// WriteHeapProfile runs a GC and writes the heap profile to path
func WriteHeapProfile(path string) error {
	f, err := os.Create(path) //nolint:gosec // G304: path comes from the CLI
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create heap profile").WithDetail("path", path)
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write heap profile")
	}
	return nil
}
