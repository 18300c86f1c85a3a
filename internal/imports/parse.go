// Package imports разбирает файлы таблиц (.csv, .xlsx) и приводит их к
// models.ImportResult.
package imports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrEmptyTable возвращается, если в файле нет ни одной непустой строки.
	ErrEmptyTable = errors.New("incorrect input data: table is empty")
	// ErrUnsupportedFormat возвращается для файла с неизвестным расширением.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// RawTable - строки файла как есть, без заголовков.
type RawTable [][]string

// ParseFile выбирает парсер по расширению файла.
func ParseFile(path string) (RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".xlsx":
		return ParseXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ParseCSV читает CSV; пустые строки пропускаются, строки разной длины допустимы.
func ParseCSV(r io.Reader) (RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var table RawTable
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		table = append(table, record)
	}

	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	return table, nil
}

// ParseXLSX читает первый лист книги.
func ParseXLSX(r io.Reader) (RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	var table RawTable
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		table = append(table, row)
	}

	if len(table) == 0 {
		return nil, ErrEmptyTable
	}
	return table, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}
