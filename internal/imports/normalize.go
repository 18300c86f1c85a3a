package imports

import (
	"fmt"
	"path/filepath"

	"github.com/iudanet/editgrid/internal/models"
)

// Options управляет нормализацией.
type Options struct {
	FirstRowAsHeaders bool
}

// Normalize строит таблицу из сырых строк. Заголовки берутся из первой строки
// или заполняются именами Column1..N; отсутствующие ячейки становятся "".
// FirstRowValues всегда содержит первую строку файла.
func Normalize(raw RawTable, filename string, opts Options) (models.ImportResult, error) {
	if len(raw) == 0 {
		return models.ImportResult{}, ErrEmptyTable
	}

	firstRow := append([]string(nil), raw[0]...)

	headers := firstRow
	start := 1
	if !opts.FirstRowAsHeaders {
		headers = placeholderHeaders(len(firstRow))
		start = 0
	}

	rows := make([]models.Row, 0, len(raw)-start)
	for _, record := range raw[start:] {
		row := make(models.Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return models.ImportResult{
		Table: models.TableData{
			Headers: append([]string(nil), headers...),
			Rows:    rows,
		},
		Metadata: models.SourceMetadata{
			Filename:       filename,
			FirstRowValues: firstRow,
		},
	}, nil
}

// Import разбирает файл path и нормализует его.
func Import(path string, opts Options) (models.ImportResult, error) {
	raw, err := ParseFile(path)
	if err != nil {
		return models.ImportResult{}, err
	}
	return Normalize(raw, filepath.Base(path), opts)
}

func placeholderHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = fmt.Sprintf("Column%d", i+1)
	}
	return headers
}
