package writer

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-moex/internal/types"
)

// MarketDataWriter defines the interface for writing market data to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single market data point.
	Write(data types.MarketData) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// Format is an export file format.
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatXLSX    Format = "xlsx"
)

const (
	exportFilePrefix      = "out_"
	exportTimeLayout      = "02.01.2006_15.04.05"
	exportTimestampLayout = "2006-01-02 15:04:05"
)

// ExportFileName returns out_<dd.mm.yyyy_HH.MM.SS>.<ext> for the given moment.
func ExportFileName(ext string, now time.Time) string {
	return exportFilePrefix + now.Format(exportTimeLayout) + "." + ext
}

// ExportPath joins dir with ExportFileName.
func ExportPath(dir string, format Format, now time.Time) string {
	return filepath.Join(dir, ExportFileName(string(format), now))
}

// New creates a file writer for the format.
func New(format Format, outputPath string) (MarketDataWriter, error) {
	switch format {
	case FormatParquet:
		return NewDuckDBWriter(outputPath), nil
	case FormatCSV:
		return NewCSVWriter(outputPath), nil
	case FormatXLSX:
		return NewXLSXWriter(outputPath), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// formatRecord renders a row in export column order. Missing values are empty cells.
func formatRecord(data types.MarketData) []string {
	record := make([]string, 0, len(types.StdColumns))
	record = append(record, data.Time.Format(exportTimestampLayout))

	for _, column := range types.ValueColumns {
		v, _ := data.Value(column)
		record = append(record, formatValue(v))
	}

	return record
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	return strconv.FormatFloat(v, 'f', -1, 64)
}
