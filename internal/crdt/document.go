package crdt

import (
	"encoding/json"
	"sync"

	"github.com/iudanet/editgrid/internal/models"
)

// Event описывает одну завершенную транзакцию документа.
type Event struct {
	Origin          string // метка источника транзакции
	Local           bool   // транзакция выполнена на этой реплике через Transact
	RowsChanged     bool
	MetadataChanged bool
}

// UpdateFunc получает закодированные операции каждой транзакции.
type UpdateFunc func(update []byte, origin string, local bool)

type subscriber[F any] struct {
	fn F
	id int
}

// Document - реплицируемый документ таблицы: последовательность строк (RGA)
// и метаданные (LWW-карта). Безопасен для конкурентного использования.
type Document struct {
	clock     *LamportClock
	rows      *rga
	meta      *LWWMap
	sv        models.StateVector
	deleteIDs map[models.OpID]struct{}

	deletes []Op
	pending []Op // операции, ожидающие неизвестные пока строки

	subs       []subscriber[func(Event)]
	updateSubs []subscriber[UpdateFunc]

	mu     sync.Mutex
	subMu  sync.Mutex
	nextID int
}

// NewDocument создает пустой документ. Пустой replicaID заменяется случайным UUID.
func NewDocument(replicaID string) *Document {
	return &Document{
		clock:     NewLamportClock(replicaID),
		rows:      newRGA(),
		meta:      NewLWWMap(),
		sv:        make(models.StateVector),
		deleteIDs: make(map[models.OpID]struct{}),
	}
}

// ReplicaID returns the id stamped on every local operation.
func (d *Document) ReplicaID() string {
	return d.clock.ReplicaID()
}

// Read возвращает материализованное состояние документа (глубокая копия).
func (d *Document) Read() models.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := d.rows.visibleItems()
	rows := make([]models.Row, len(items))
	for i, it := range items {
		rows[i] = it.row.Clone()
	}

	return models.Snapshot{
		Rows:           rows,
		Headers:        d.metaStrings(models.MetaHeaders),
		Filename:       d.metaString(models.MetaFilename),
		FirstRowValues: d.metaStrings(models.MetaFirstRowValues),
	}
}

// Transact выполняет fn как одну атомарную транзакцию с меткой origin.
// Подписчики получают одно событие после завершения fn, если транзакция
// изменила документ. Внутри fn нельзя вызывать методы Document: читать
// состояние нужно через Txn.
func (d *Document) Transact(origin string, fn func(*Txn)) {
	txn := d.run(fn)
	if len(txn.ops) == 0 {
		return
	}
	d.emit(Event{
		Origin:          origin,
		Local:           true,
		RowsChanged:     txn.rowsChanged,
		MetadataChanged: txn.metaChanged,
	}, txn.ops)
}

// run выполняет fn под блокировкой документа. Паника в fn снимает блокировку.
func (d *Document) run(fn func(*Txn)) *Txn {
	d.mu.Lock()
	defer d.mu.Unlock()

	txn := &Txn{doc: d}
	defer func() { txn.doc = nil }()
	fn(txn)
	return txn
}

// ApplyUpdate вливает кадр обновления другой реплики.
// Повторно полученные операции игнорируются; операции, ссылающиеся на
// неизвестные строки, откладываются до прихода этих строк.
func (d *Document) ApplyUpdate(update []byte, origin string) error {
	u, err := DecodeUpdate(update)
	if err != nil {
		return err
	}

	d.mu.Lock()
	applied, rowsChanged, metaChanged := d.integrate(u.Ops)
	d.mu.Unlock()

	if len(applied) == 0 {
		return nil
	}
	d.emit(Event{
		Origin:          origin,
		Local:           false,
		RowsChanged:     rowsChanged,
		MetadataChanged: metaChanged,
	}, applied)
	return nil
}

// Subscribe регистрирует обработчик событий транзакций.
// Возвращает функцию отписки; повторный вызов отписки безопасен.
func (d *Document) Subscribe(fn func(Event)) func() {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscriber[func(Event)]{id: id, fn: fn})

	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		d.subs = removeSubscriber(d.subs, id)
	}
}

// OnUpdate регистрирует обработчик закодированных операций каждой транзакции.
// Используется транспортом для отправки локальных правок.
func (d *Document) OnUpdate(fn UpdateFunc) func() {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	d.nextID++
	id := d.nextID
	d.updateSubs = append(d.updateSubs, subscriber[UpdateFunc]{id: id, fn: fn})

	return func() {
		d.subMu.Lock()
		defer d.subMu.Unlock()
		d.updateSubs = removeSubscriber(d.updateSubs, id)
	}
}

// StateVector возвращает вектор состояния для шага синхронизации 1.
func (d *Document) StateVector() models.StateVector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sv.Clone()
}

// EncodeStateAsUpdate кодирует все операции, которых нет у реплики с вектором sv.
// nil означает полное состояние документа.
func (d *Document) EncodeStateAsUpdate(sv models.StateVector) ([]byte, error) {
	d.mu.Lock()
	ops := make([]Op, 0, len(d.rows.items)+len(d.deletes)+len(d.pending))
	for _, it := range d.rows.items {
		if sv.Covers(it.id) {
			continue
		}
		ops = append(ops, Op{
			Kind:     OpInsert,
			ID:       it.id,
			Origin:   it.origin,
			Replaces: it.replaces,
			Row:      it.row.Clone(),
		})
	}
	for _, op := range d.deletes {
		if !sv.Covers(op.ID) {
			ops = append(ops, op)
		}
	}
	for _, entry := range d.meta.EntriesMissingFrom(sv) {
		ops = append(ops, Op{Kind: OpSet, ID: entry.ID, Key: entry.Key, Value: entry.Value})
	}
	ops = append(ops, d.pending...)
	d.mu.Unlock()

	sortOps(ops)
	return EncodeUpdate(ops)
}

// Pending returns the number of operations waiting for unknown rows.
func (d *Document) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// integrate применяет операции; вызывается под d.mu.
func (d *Document) integrate(ops []Op) (applied []Op, rowsChanged, metaChanged bool) {
	queue := append(d.pending, ops...)
	d.pending = nil

	for progress := true; progress; {
		progress = false
		var parked []Op
		for _, op := range queue {
			d.clock.Observe(op.ID.Clock)

			ok, ready, rc, mc := d.integrateOp(op)
			if !ready {
				parked = append(parked, op)
				continue
			}
			if ok {
				applied = append(applied, op)
				progress = true
				rowsChanged = rowsChanged || rc
				metaChanged = metaChanged || mc
			}
		}
		queue = parked
	}

	d.pending = queue
	return applied, rowsChanged, metaChanged
}

// integrateOp возвращает ok=false для уже известной операции
// и ready=false, если операция ссылается на неизвестную строку.
func (d *Document) integrateOp(op Op) (ok, ready, rowsChanged, metaChanged bool) {
	switch op.Kind {
	case OpInsert:
		if d.rows.has(op.ID) {
			return false, true, false, false
		}
		if !d.rows.ready(op.Origin, op.Replaces) {
			return false, false, false, false
		}
		it := &item{id: op.ID, origin: op.Origin, replaces: op.Replaces, row: op.Row.Clone()}
		d.rows.integrate(it)
		d.sv.Observe(op.ID)
		return true, true, it.visible(), false

	case OpDelete:
		if _, seen := d.deleteIDs[op.ID]; seen {
			return false, true, false, false
		}
		if !d.rows.has(*op.Target) {
			return false, false, false, false
		}
		changed := d.rows.remove(*op.Target, op.Replace)
		d.recordDelete(op)
		return true, true, changed, false

	case OpSet:
		if current := d.meta.Get(op.Key); current != nil && current.ID == op.ID {
			return false, true, false, false
		}
		changed := d.meta.Set(&models.MetaEntry{Key: op.Key, Value: op.Value, ID: op.ID})
		d.sv.Observe(op.ID)
		return true, true, false, changed
	}
	return false, true, false, false
}

func (d *Document) recordDelete(op Op) {
	d.deleteIDs[op.ID] = struct{}{}
	d.deletes = append(d.deletes, op)
	d.sv.Observe(op.ID)
}

func (d *Document) emit(ev Event, ops []Op) {
	d.subMu.Lock()
	subs := make([]subscriber[func(Event)], len(d.subs))
	copy(subs, d.subs)
	updateSubs := make([]subscriber[UpdateFunc], len(d.updateSubs))
	copy(updateSubs, d.updateSubs)
	d.subMu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
	if len(updateSubs) == 0 {
		return
	}

	data, err := EncodeUpdate(ops)
	if err != nil {
		return
	}
	for _, s := range updateSubs {
		s.fn(data, ev.Origin, ev.Local)
	}
}

func (d *Document) metaString(key string) string {
	entry := d.meta.Get(key)
	if entry == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(entry.Value, &s); err != nil {
		return ""
	}
	return s
}

func (d *Document) metaStrings(key string) []string {
	entry := d.meta.Get(key)
	if entry == nil {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(entry.Value, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func removeSubscriber[F any](subs []subscriber[F], id int) []subscriber[F] {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
