package writer

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/rxtech-lab/argo-moex/internal/types"
)

// SheetName is the worksheet the candles are written to.
const SheetName = "Sheet1"

// XLSXWriter writes candles to a single worksheet with a header row.
type XLSXWriter struct {
	outputPath string
	file       *excelize.File
	stream     *excelize.StreamWriter
	row        int
}

func NewXLSXWriter(outputPath string) MarketDataWriter {
	return &XLSXWriter{
		outputPath: outputPath,
		file:       nil,
		stream:     nil,
		row:        0,
	}
}

func (w *XLSXWriter) Initialize() error {
	w.file = excelize.NewFile()

	stream, err := w.file.NewStreamWriter(SheetName)
	if err != nil {
		w.file.Close()
		w.file = nil

		return fmt.Errorf("failed to create sheet writer: %w", err)
	}

	w.stream = stream

	header := make([]any, len(types.StdColumns))
	for i, column := range types.StdColumns {
		header[i] = column
	}

	w.row = 1

	return w.writeRow(header)
}

func (w *XLSXWriter) Write(data types.MarketData) error {
	if w.stream == nil {
		return fmt.Errorf("writer not initialized")
	}

	values := make([]any, 0, len(types.StdColumns))
	values = append(values, data.Time.Format(exportTimestampLayout))

	for _, column := range types.ValueColumns {
		v, _ := data.Value(column)
		if math.IsNaN(v) {
			values = append(values, nil)

			continue
		}

		values = append(values, v)
	}

	return w.writeRow(values)
}

func (w *XLSXWriter) writeRow(values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}

	if err := w.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.row, err)
	}

	w.row++

	return nil
}

func (w *XLSXWriter) Finalize() (string, error) {
	if w.stream == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	if err := w.stream.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush sheet: %w", err)
	}

	w.stream = nil

	if err := w.file.SaveAs(w.outputPath); err != nil {
		return "", fmt.Errorf("failed to save xlsx: %w", err)
	}

	return w.outputPath, nil
}

func (w *XLSXWriter) Close() error {
	if w.file == nil {
		return nil
	}

	err := w.file.Close()
	w.file = nil
	w.stream = nil

	return err
}

func (w *XLSXWriter) GetOutputPath() string {
	return w.outputPath
}
