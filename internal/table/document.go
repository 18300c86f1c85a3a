// Package table содержит операции над документом таблицы и его
// материализованное представление для слоя отображения.
package table

import (
	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
)

// Метки источников транзакций.
const (
	OriginCellUpdate = "cell-update" // правка ячейки; локальное эхо подавляется
	OriginLocal      = "local"       // структурная правка строк и колонок
	OriginImport     = "import"
	OriginMigration  = "migration"
	OriginDraft      = "draft"
	OriginSeed       = "seed"
)

// Document - общий интерфейс документа таблицы для локального и совместного
// режимов. Реализуется *crdt.Document.
type Document interface {
	Read() models.Snapshot
	Transact(origin string, fn func(*crdt.Txn))
	Subscribe(fn func(crdt.Event)) func()
}

var _ Document = (*crdt.Document)(nil)

// Populate заменяет содержимое документа результатом импорта в одной транзакции.
func Populate(doc Document, result models.ImportResult, origin string) {
	rows := models.CloneRows(result.Table.Rows)
	doc.Transact(origin, func(txn *crdt.Txn) {
		txn.Delete(0, txn.Len())
		txn.SetHeaders(append([]string(nil), result.Table.Headers...))
		txn.Push(rows...)
		txn.SetFilename(result.Metadata.Filename)
		txn.SetFirstRowValues(append([]string(nil), result.Metadata.FirstRowValues...))
	})
}

// Copy записывает в dst полное состояние snapshot одной транзакцией.
func Copy(dst Document, snap models.Snapshot, origin string) {
	Populate(dst, models.ImportResult{
		Table: models.TableData{Headers: snap.Headers, Rows: snap.Rows},
		Metadata: models.SourceMetadata{
			Filename:       snap.Filename,
			FirstRowValues: snap.FirstRowValues,
		},
	}, origin)
}
