package crdt

import (
	"encoding/json"

	"github.com/iudanet/editgrid/internal/models"
)

// Txn - открытая транзакция документа. Действительна только внутри
// функции, переданной в Document.Transact. Индексы строк - позиции среди
// видимых строк; индексы вне диапазона обрезаются или игнорируются.
type Txn struct {
	doc         *Document
	ops         []Op
	rowsChanged bool
	metaChanged bool
}

// Len returns the number of visible rows.
func (t *Txn) Len() int {
	return t.doc.rows.length()
}

// Row возвращает копию строки с индексом index.
func (t *Txn) Row(index int) (models.Row, bool) {
	it := t.doc.rows.at(index)
	if it == nil {
		return nil, false
	}
	return it.row.Clone(), true
}

// Rows returns copies of all visible rows.
func (t *Txn) Rows() []models.Row {
	items := t.doc.rows.visibleItems()
	out := make([]models.Row, len(items))
	for i, it := range items {
		out[i] = it.row.Clone()
	}
	return out
}

// Insert вставляет строки начиная с позиции index (обрезается до [0, Len]).
func (t *Txn) Insert(index int, rows ...models.Row) {
	if len(rows) == 0 {
		return
	}
	index = clamp(index, 0, t.Len())

	var origin *models.OpID
	if index > 0 {
		left := t.doc.rows.at(index - 1)
		id := left.id
		origin = &id
	}

	for _, row := range rows {
		origin = t.insertAfter(origin, nil, row)
	}
}

// Push appends rows to the end.
func (t *Txn) Push(rows ...models.Row) {
	t.Insert(t.Len(), rows...)
}

// Delete удаляет count строк начиная с index. Вне диапазона - ничего не делает.
func (t *Txn) Delete(index, count int) {
	if index < 0 || count <= 0 {
		return
	}
	items := t.doc.rows.visibleItems()
	if index >= len(items) {
		return
	}
	end := min(index+count, len(items))
	for _, it := range items[index:end] {
		t.remove(it.id, false)
	}
}

// ReplaceRow заменяет строку index новой строкой: удаление и вставка на то же
// место. Замена связана с исходной строкой, поэтому параллельное удаление
// исходной строки скрывает и замену.
func (t *Txn) ReplaceRow(index int, row models.Row) bool {
	target := t.doc.rows.at(index)
	if target == nil {
		return false
	}

	var origin *models.OpID
	if index > 0 {
		id := t.doc.rows.at(index - 1).id
		origin = &id
	}

	replaced := target.id
	t.remove(replaced, true)
	t.insertAfter(origin, &replaced, row)
	return true
}

// Headers returns the current column order.
func (t *Txn) Headers() []string {
	return t.doc.metaStrings(models.MetaHeaders)
}

// SetHeaders записывает порядок колонок.
func (t *Txn) SetHeaders(headers []string) {
	if headers == nil {
		headers = []string{}
	}
	t.set(models.MetaHeaders, headers)
}

// Filename returns the display name of the imported file.
func (t *Txn) Filename() string {
	return t.doc.metaString(models.MetaFilename)
}

// SetFilename записывает имя исходного файла.
func (t *Txn) SetFilename(name string) {
	t.set(models.MetaFilename, name)
}

// FirstRowValues returns the raw first row of the import.
func (t *Txn) FirstRowValues() []string {
	return t.doc.metaStrings(models.MetaFirstRowValues)
}

// SetFirstRowValues записывает исходную первую строку импорта.
func (t *Txn) SetFirstRowValues(values []string) {
	if values == nil {
		values = []string{}
	}
	t.set(models.MetaFirstRowValues, values)
}

func (t *Txn) insertAfter(origin, replaces *models.OpID, row models.Row) *models.OpID {
	d := t.doc
	it := &item{
		id:       d.clock.Next(),
		origin:   origin,
		replaces: replaces,
		row:      row.Clone(),
	}
	d.rows.integrate(it)
	d.sv.Observe(it.id)

	t.ops = append(t.ops, Op{
		Kind:     OpInsert,
		ID:       it.id,
		Origin:   origin,
		Replaces: replaces,
		Row:      it.row.Clone(),
	})
	if it.visible() {
		t.rowsChanged = true
	}

	id := it.id
	return &id
}

func (t *Txn) remove(target models.OpID, replace bool) {
	d := t.doc
	op := Op{
		Kind:    OpDelete,
		ID:      d.clock.Next(),
		Target:  &target,
		Replace: replace,
	}
	if d.rows.remove(target, replace) {
		t.rowsChanged = true
	}
	d.recordDelete(op)
	t.ops = append(t.ops, op)
}

func (t *Txn) set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	d := t.doc
	entry := &models.MetaEntry{Key: key, Value: raw, ID: d.clock.Next()}
	if d.meta.Set(entry) {
		t.metaChanged = true
	}
	d.sv.Observe(entry.ID)
	t.ops = append(t.ops, Op{Kind: OpSet, ID: entry.ID, Key: key, Value: raw})
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
