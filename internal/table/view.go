package table

import (
	"slices"
	"sync"

	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
)

// View - материализованное представление документа для слоя отображения.
// Пересчитывается на каждое событие документа, кроме собственного эха
// правки ячейки: локальное событие с меткой cell-update пропускается, так как
// поле ввода уже содержит новое значение.
type View struct {
	doc         Document
	unsubscribe func()
	snapshot    models.Snapshot
	listeners   []func(models.Snapshot)
	mu          sync.RWMutex
	refreshMu   sync.Mutex // чтение документа и запись снимка идут под одной блокировкой
	loading     bool
}

// NewView создает представление и подписывает его на документ.
// До вызова Close представление следит за документом.
func NewView(doc Document) *View {
	v := &View{doc: doc}
	v.unsubscribe = doc.Subscribe(v.handle)
	v.Refresh()
	return v
}

// Suppressed reports whether the event is the local echo of a cell edit.
func Suppressed(ev crdt.Event) bool {
	return ev.Local && ev.Origin == OriginCellUpdate
}

func (v *View) handle(ev crdt.Event) {
	if Suppressed(ev) {
		return
	}
	v.Refresh()
}

// Refresh перечитывает документ и уведомляет слушателей.
// Безопасен для вызова из нескольких горутин: сохраняется последнее прочитанное состояние.
func (v *View) Refresh() {
	v.refreshMu.Lock()
	snap := v.doc.Read()

	v.mu.Lock()
	v.snapshot = snap
	listeners := slices.Clone(v.listeners)
	v.mu.Unlock()
	v.refreshMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Snapshot возвращает последнее вычисленное состояние.
func (v *View) Snapshot() models.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshot
}

// Loading reports whether the view is still waiting for initial data.
func (v *View) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// SetLoading sets the loading flag.
func (v *View) SetLoading(loading bool) {
	v.mu.Lock()
	v.loading = loading
	v.mu.Unlock()
}

// OnChange регистрирует слушателя пересчитанного состояния.
func (v *View) OnChange(fn func(models.Snapshot)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.listeners = append(v.listeners, fn)
	idx := len(v.listeners) - 1
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if idx < len(v.listeners) {
			v.listeners[idx] = func(models.Snapshot) {}
		}
	}
}

// Close отписывает представление от документа. Повторный вызов безопасен.
func (v *View) Close() {
	v.mu.Lock()
	unsubscribe := v.unsubscribe
	v.unsubscribe = nil
	v.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
