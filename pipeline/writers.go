package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-scrape-search/models"
)

var csvHeader = []string{
	"url", "identifier", "title", "price", "image_url",
	"rating_stars", "review_count", "is_bestseller", "is_prime_eligible",
}

// CSVWriter writes records to CSV. Absent optional fields are empty cells.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends products to the CSV output.
func (cw *CSVWriter) Write(products []*models.Product) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, p := range products {
		if err := cw.writer.Write(csvRecord(p)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

func csvRecord(p *models.Product) []string {
	record := []string{
		p.URL,
		"",
		p.Title,
		"",
		"",
		"",
		"",
		strconv.FormatBool(p.IsBestseller),
		strconv.FormatBool(p.IsPrimeEligible),
	}
	if p.Identifier != nil {
		record[1] = *p.Identifier
	}
	if p.Price != nil {
		record[3] = p.Price.StringFixed(2)
	}
	if p.ImageURL != nil {
		record[4] = *p.ImageURL
	}
	if p.RatingStars != nil {
		record[5] = strconv.FormatFloat(*p.RatingStars, 'f', 1, 64)
	}
	if p.ReviewCount != nil {
		record[6] = strconv.Itoa(*p.ReviewCount)
	}
	return record
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONLWriter writes newline-delimited JSON records.
type JSONLWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONLWriter initialises the JSONL writer.
func NewJSONLWriter(filename string) (*JSONLWriter, error) {
	f, err := createOutput(filename, "jsonl")
	if err != nil {
		return nil, err
	}

	buffer := bufio.NewWriter(f)
	return &JSONLWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends one line per product.
func (jw *JSONLWriter) Write(products []*models.Product) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, p := range products {
		if err := jw.encoder.Encode(p); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSONL file has data.
func (jw *JSONLWriter) Validate() error {
	return validateNonEmpty(jw.file, "jsonl")
}

// JSONWriter writes all products as a single JSON array. The array is
// opened on creation and closed by Close, so the file is only valid JSON
// after Close returns.
type JSONWriter struct {
	file   *os.File
	writer *bufio.Writer
	count  int
	mu     sync.Mutex
}

// NewJSONWriter initialises the JSON array writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	f, err := createOutput(filename, "json")
	if err != nil {
		return nil, err
	}

	buffer := bufio.NewWriter(f)
	if _, err := buffer.WriteString("["); err != nil {
		f.Close()
		return nil, fmt.Errorf("write json array start: %w", err)
	}
	if err := buffer.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush json writer: %w", err)
	}
	return &JSONWriter{file: f, writer: buffer}, nil
}

// Write appends products to the array.
func (jw *JSONWriter) Write(products []*models.Product) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, p := range products {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
		sep := ",\n  "
		if jw.count == 0 {
			sep = "\n  "
		}
		if _, err := jw.writer.WriteString(sep); err != nil {
			return fmt.Errorf("write json record: %w", err)
		}
		if _, err := jw.writer.Write(data); err != nil {
			return fmt.Errorf("write json record: %w", err)
		}
		jw.count++
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close terminates the array and closes the file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	end := "\n]\n"
	if jw.count == 0 {
		end = "]\n"
	}
	if _, err := jw.writer.WriteString(end); err != nil {
		return fmt.Errorf("write json array end: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateNonEmpty(jw.file, "json")
}

func createOutput(filename, kind string) (*os.File, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create %s file: %w", kind, err)
	}
	return f, nil
}

func validateNonEmpty(f *os.File, kind string) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
