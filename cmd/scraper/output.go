package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aluiziolira/go-scrape-search/models"
	"github.com/aluiziolira/go-scrape-search/pipeline"
	"github.com/google/uuid"
)

func defaultOutputFile(format string) string {
	ext := format
	if format == "dual" {
		ext = "csv"
	}
	return uuid.NewString() + "." + ext
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "jsonl":
		return pipeline.NewJSONLWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(w io.Writer, result *models.SearchResult, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintf(w, "Search complete: %q\n", result.Query)

	written := int64(0)
	if processed, ok := metrics["processed_products"].(int64); ok {
		written = processed
	}

	duration := result.Duration()
	itemsPerSec := 0.0
	if duration.Seconds() > 0 {
		itemsPerSec = float64(len(result.Products)) / duration.Seconds()
	}

	fmt.Fprintf(w, "  Products:      %d found, %d written\n", len(result.Products), written)
	fmt.Fprintf(w, "  Pages:         %d (%d exhausted)\n", result.PageCount, len(result.ExhaustedPages))
	fmt.Fprintf(w, "  Requests:      %d\n", result.RequestCount)
	fmt.Fprintf(w, "  Retries:       %d\n", result.RetryCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Fprintf(w, "  Error types:   %v\n", result.ErrorsByType)
	}
	for _, u := range result.ExhaustedPages {
		fmt.Fprintf(w, "  Skipped page:  %s\n", u)
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Fprintf(w, "  Validation:    %v\n", valErrors)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration)
	fmt.Fprintf(w, "  Items/sec:     %.2f\n", itemsPerSec)
	fmt.Fprintf(w, "  Output file:   %s\n", outputFile)
	fmt.Fprintln(w, separator)
}
