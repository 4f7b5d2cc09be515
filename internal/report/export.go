// AngelaMos | 2026
// export.go

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

const exportSheet = "Defects"

// ParseFormat accepts xlsx or csv, case-insensitively. Empty means xlsx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("export format %q: %w", s, core.ErrInvalidInput)
	}
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

type rowWriter interface {
	WriteRow(cells []string) error
	Finish() error
	Close() error
}

func newRowWriter(format Format, w io.Writer) (rowWriter, error) {
	switch format {
	case FormatCSV:
		return &csvRowWriter{w: csv.NewWriter(w)}, nil
	case FormatXLSX:
		return newXLSXRowWriter(w)
	default:
		return nil, fmt.Errorf("export format %q: %w", format, core.ErrInvalidInput)
	}
}

type csvRowWriter struct {
	w *csv.Writer
}

func (c *csvRowWriter) WriteRow(cells []string) error {
	return c.w.Write(cells)
}

func (c *csvRowWriter) Finish() error {
	c.w.Flush()
	return c.w.Error()
}

func (c *csvRowWriter) Close() error { return nil }

// xlsxRowWriter streams rows into a single sheet. Nothing reaches out
// until Finish.
type xlsxRowWriter struct {
	file   *excelize.File
	stream *excelize.StreamWriter
	out    io.Writer
	row    int
}

func newXLSXRowWriter(out io.Writer) (*xlsxRowWriter, error) {
	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", exportSheet); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	stream, err := file.NewStreamWriter(exportSheet)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("open sheet stream: %w", err)
	}

	return &xlsxRowWriter{file: file, stream: stream, out: out}, nil
}

func (x *xlsxRowWriter) WriteRow(cells []string) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}

	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return x.stream.SetRow(cell, values)
}

func (x *xlsxRowWriter) Finish() error {
	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	return x.file.Write(x.out)
}

func (x *xlsxRowWriter) Close() error {
	return x.file.Close()
}
