package writer

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-moex/internal/types"
)

// CSVWriter writes candles as comma separated text with a header row.
type CSVWriter struct {
	outputPath string
	file       *os.File
	csv        *csv.Writer
}

func NewCSVWriter(outputPath string) MarketDataWriter {
	return &CSVWriter{
		outputPath: outputPath,
		file:       nil,
		csv:        nil,
	}
}

func (w *CSVWriter) Initialize() error {
	file, err := os.Create(w.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}

	w.file = file
	w.csv = csv.NewWriter(file)

	if err := w.csv.Write(types.StdColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	return nil
}

func (w *CSVWriter) Write(data types.MarketData) error {
	if w.csv == nil {
		return fmt.Errorf("writer not initialized")
	}

	if err := w.csv.Write(formatRecord(data)); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}

	return nil
}

func (w *CSVWriter) Finalize() (string, error) {
	if w.csv == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return w.outputPath, nil
}

func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	w.csv.Flush()
	err := w.file.Close()
	w.file = nil
	w.csv = nil

	if err != nil {
		return fmt.Errorf("failed to close csv file: %w", err)
	}

	return nil
}

func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}
