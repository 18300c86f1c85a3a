// Package exports сохраняет снимок документа таблицы в .csv или .xlsx.
package exports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iudanet/editgrid/internal/models"
)

// ErrUnsupportedFormat возвращается для файла с неизвестным расширением.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// SheetName - имя единственного листа выгружаемой книги.
const SheetName = "Sheet1"

// Options управляет выгрузкой.
type Options struct {
	IncludeHeaders bool
}

// DefaultOptions включает строку заголовков, если таблица пришла из файла
// с заголовками в первой строке.
func DefaultOptions(snap models.Snapshot) Options {
	return Options{IncludeHeaders: len(snap.FirstRowValues) > 0}
}

// Records раскладывает снимок в строки по порядку колонок.
func Records(snap models.Snapshot, opts Options) [][]string {
	records := make([][]string, 0, len(snap.Rows)+1)
	if opts.IncludeHeaders && len(snap.Headers) > 0 {
		records = append(records, append([]string(nil), snap.Headers...))
	}
	for _, row := range snap.Rows {
		record := make([]string, len(snap.Headers))
		for i, h := range snap.Headers {
			record[i] = row.Get(h)
		}
		records = append(records, record)
	}
	return records
}

// WriteCSV пишет таблицу в CSV; поля с запятыми и кавычками экранируются.
func WriteCSV(w io.Writer, snap models.Snapshot, opts Options) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(Records(snap, opts)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteXLSX пишет таблицу на первый лист новой книги.
func WriteXLSX(w io.Writer, snap models.Snapshot, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet writer: %w", err)
	}

	for i, record := range Records(snap, opts) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]any, len(record))
		for j, v := range record {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportFile выбирает формат по расширению path и создает файл.
func ExportFile(path string, snap models.Snapshot, opts Options) (err error) {
	var write func(io.Writer, models.Snapshot, Options) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = WriteCSV
	case ".xlsx":
		write = WriteXLSX
	default:
		return fmt.Errorf("%w: %q, use .csv or .xlsx", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return write(f, snap, opts)
}
