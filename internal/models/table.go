package models

// Ключи метаданных документа таблицы.
const (
	MetaHeaders        = "headers"
	MetaFilename       = "filename"
	MetaFirstRowValues = "firstRowValues"
)

// Row представляет строку таблицы: идентификатор колонки -> значение ячейки.
// Строка не обязана содержать все ключи заголовков; отсутствующий ключ
// отображается как пустая строка.
type Row map[string]string

// Get returns the cell value, "" when the key is absent.
func (r Row) Get(columnID string) string {
	return r[columnID]
}

// Clone создает поверхностную копию строки (значения - строки).
func (r Row) Clone() Row {
	if r == nil {
		return Row{}
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// CloneRows copies every row of the slice.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out
}

// Snapshot - материализованное состояние документа таблицы.
type Snapshot struct {
	Rows           []Row    `json:"rows"`
	Headers        []string `json:"headers"`
	Filename       string   `json:"filename"`
	FirstRowValues []string `json:"first_row_values"`
}

// IsEmpty reports a document with neither rows nor headers.
func (s Snapshot) IsEmpty() bool {
	return len(s.Rows) == 0 && len(s.Headers) == 0
}

// TableData - таблица в форме, которую выдает этап импорта.
type TableData struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// SourceMetadata describes where the imported table came from.
type SourceMetadata struct {
	Filename       string   `json:"filename"`
	FirstRowValues []string `json:"first_row_values"`
}

// ImportResult - результат разбора и нормализации файла.
// Пустой список заголовков допустим.
type ImportResult struct {
	Table    TableData      `json:"table"`
	Metadata SourceMetadata `json:"metadata"`
}
