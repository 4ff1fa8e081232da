package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-search/models"
)

type namedOutput struct {
	kind string
	out  OutputWriter
}

// DualWriter fans every batch out to a CSV file and a JSON array file.
type DualWriter struct {
	mu      sync.Mutex
	outputs []namedOutput
}

// NewDualWriter opens both outputs; on failure nothing is left open.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvOut, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("open csv output: %w", err)
	}
	jsonOut, err := NewJSONWriter(jsonFilename)
	if err != nil {
		_ = csvOut.Close()
		return nil, fmt.Errorf("open json output: %w", err)
	}

	return &DualWriter{outputs: []namedOutput{
		{kind: "csv", out: csvOut},
		{kind: "json", out: jsonOut},
	}}, nil
}

// Write stops at the first output that fails.
func (dw *DualWriter) Write(products []*models.Product) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for _, o := range dw.outputs {
		if err := o.out.Write(products); err != nil {
			return fmt.Errorf("%s write: %w", o.kind, err)
		}
	}
	return nil
}

// Close closes every output, even after one fails.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	return dw.each("close", OutputWriter.Close)
}

func (dw *DualWriter) Validate() error {
	return dw.each("validation", OutputWriter.Validate)
}

func (dw *DualWriter) each(op string, fn func(OutputWriter) error) error {
	var errs []error
	for _, o := range dw.outputs {
		if err := fn(o.out); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", o.kind, op, err))
		}
	}
	return errors.Join(errs...)
}
