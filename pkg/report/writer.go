package report

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONWriter writes reports as JSON.
type JSONWriter struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewJSONWriter creates a JSON writer with compact output.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

// NewPrettyJSONWriter creates a JSON writer with pretty printing.
func NewPrettyJSONWriter() *JSONWriter {
	return &JSONWriter{Indent: "  "}
}

// Write writes the report as JSON.
func (w *JSONWriter) Write(r *Report, out io.Writer) error {
	encoder := json.NewEncoder(out)
	if w.Indent != "" {
		encoder.SetIndent("", w.Indent)
	}
	return encoder.Encode(r)
}

// WriteToFile writes the report as JSON to a file.
func (w *JSONWriter) WriteToFile(r *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(r, file)
}

// GzipWriter writes reports as gzipped JSON, for graphs whose by-type
// breakdown gets large.
type GzipWriter struct {
	// CompressionLevel is the gzip compression level (1-9).
	CompressionLevel int
}

// NewGzipWriter creates a gzip writer with default compression.
func NewGzipWriter() *GzipWriter {
	return &GzipWriter{CompressionLevel: gzip.DefaultCompression}
}

// Write writes the report as gzipped JSON.
func (w *GzipWriter) Write(r *Report, out io.Writer) error {
	gz, err := gzip.NewWriterLevel(out, w.CompressionLevel)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	if err := json.NewEncoder(gz).Encode(r); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return gz.Close()
}

// WriteToFile writes the report as gzipped JSON to a file.
func (w *GzipWriter) WriteToFile(r *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return w.Write(r, file)
}
