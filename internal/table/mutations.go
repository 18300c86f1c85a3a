package table

import (
	"fmt"
	"slices"

	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
)

// Mutations - поверхность операций над таблицей. Аргументы только
// позиционные и строковые; индексы вне диапазона молча игнорируются, так как
// документ мог уменьшиться из-за параллельной правки другой реплики.
type Mutations struct {
	Rows    RowMutations
	Columns ColumnMutations
	doc     Document
}

// RowMutations groups row operations.
type RowMutations struct {
	doc Document
}

// ColumnMutations groups column operations.
type ColumnMutations struct {
	doc Document
}

// NewMutations создает операции над документом doc.
func NewMutations(doc Document) *Mutations {
	return &Mutations{
		Rows:    RowMutations{doc: doc},
		Columns: ColumnMutations{doc: doc},
		doc:     doc,
	}
}

// UpdateCell заменяет строку rowIndex копией, в которой columnID = value.
// Выполняется как удаление и вставка на то же место с меткой cell-update.
func (m *Mutations) UpdateCell(rowIndex int, columnID, value string) {
	m.doc.Transact(OriginCellUpdate, func(txn *crdt.Txn) {
		row, ok := txn.Row(rowIndex)
		if !ok {
			return
		}
		row[columnID] = value
		txn.ReplaceRow(rowIndex, row)
	})
}

// Add вставляет пустую строку (пустые значения для всех колонок) в позицию atIndex.
func (r RowMutations) Add(atIndex int) {
	r.doc.Transact(OriginLocal, func(txn *crdt.Txn) {
		headers := txn.Headers()
		row := make(models.Row, len(headers))
		for _, h := range headers {
			row[h] = ""
		}
		txn.Insert(atIndex, row)
	})
}

// Remove deletes the row at index.
func (r RowMutations) Remove(index int) {
	r.doc.Transact(OriginLocal, func(txn *crdt.Txn) {
		txn.Delete(index, 1)
	})
}

// Duplicate вставляет копию строки index сразу после нее.
func (r RowMutations) Duplicate(index int) {
	r.doc.Transact(OriginLocal, func(txn *crdt.Txn) {
		row, ok := txn.Row(index)
		if !ok {
			return
		}
		txn.Insert(index+1, row)
	})
}

// Add добавляет колонку Column{N} с наименьшим свободным N после afterColumnID
// (или в конец) и перезаписывает все строки с новым пустым ключом.
// Строки, вставленные другими репликами параллельно, ключ не получат.
// Возвращает имя новой колонки.
func (c ColumnMutations) Add(afterColumnID string) string {
	var name string
	c.doc.Transact(OriginLocal, func(txn *crdt.Txn) {
		headers := txn.Headers()
		name = NextColumnName(headers)

		at := len(headers)
		if i := slices.Index(headers, afterColumnID); i >= 0 {
			at = i + 1
		}
		txn.SetHeaders(slices.Insert(headers, at, name))

		rows := txn.Rows()
		for _, row := range rows {
			row[name] = ""
		}
		rewriteRows(txn, rows)
	})
	return name
}

// Remove удаляет колонку из заголовков и ключ из каждой строки полной
// перезаписью последовательности строк. Параллельные правки строк других
// реплик при этом теряются. Неизвестная колонка - ничего не делает.
func (c ColumnMutations) Remove(columnID string) {
	c.doc.Transact(OriginLocal, func(txn *crdt.Txn) {
		headers := txn.Headers()
		i := slices.Index(headers, columnID)
		if i < 0 {
			return
		}
		txn.SetHeaders(slices.Delete(headers, i, i+1))

		rows := txn.Rows()
		for _, row := range rows {
			delete(row, columnID)
		}
		rewriteRows(txn, rows)
	})
}

// NextColumnName возвращает Column{N} с наименьшим N >= 1, которого нет в headers.
func NextColumnName(headers []string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("Column%d", n)
		if !slices.Contains(headers, name) {
			return name
		}
	}
}

func rewriteRows(txn *crdt.Txn, rows []models.Row) {
	txn.Delete(0, txn.Len())
	txn.Push(rows...)
}
