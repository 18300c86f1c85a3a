package crdt

import (
	"github.com/iudanet/editgrid/internal/models"
)

// item - элемент последовательности строк (RGA).
// Удаленные элементы остаются в списке как надгробия: на них могут ссылаться
// вставки других реплик.
type item struct {
	origin   *models.OpID // видимый левый сосед в момент вставки, nil - начало списка
	replaces *models.OpID // строка, которую этот элемент заменил (правка ячейки)
	row      models.Row
	id       models.OpID

	deleted     bool // удален любой операцией
	pureDeleted bool // удален явным удалением строки, а не заменой
	killed      bool // скрыт, потому что заменяемая строка была удалена параллельно
}

func (it *item) visible() bool {
	return !it.deleted && !it.killed
}

// rga хранит упорядоченную последовательность строк.
// Не потокобезопасна: синхронизацию обеспечивает Document.
type rga struct {
	byID       map[models.OpID]*item
	replacedBy map[models.OpID][]*item
	items      []*item
}

func newRGA() *rga {
	return &rga{
		byID:       make(map[models.OpID]*item),
		replacedBy: make(map[models.OpID][]*item),
	}
}

func (s *rga) has(id models.OpID) bool {
	_, ok := s.byID[id]
	return ok
}

// length returns the number of visible rows.
func (s *rga) length() int {
	n := 0
	for _, it := range s.items {
		if it.visible() {
			n++
		}
	}
	return n
}

// at возвращает видимый элемент с индексом index или nil.
func (s *rga) at(index int) *item {
	if index < 0 {
		return nil
	}
	n := 0
	for _, it := range s.items {
		if !it.visible() {
			continue
		}
		if n == index {
			return it
		}
		n++
	}
	return nil
}

// visibleItems возвращает видимые элементы в порядке документа.
func (s *rga) visibleItems() []*item {
	out := make([]*item, 0, len(s.items))
	for _, it := range s.items {
		if it.visible() {
			out = append(out, it)
		}
	}
	return out
}

func (s *rga) position(id models.OpID) int {
	for i, it := range s.items {
		if it.id == id {
			return i
		}
	}
	return -1
}

// ready reports whether every item the insert refers to is already known.
func (s *rga) ready(origin, replaces *models.OpID) bool {
	if origin != nil && !s.has(*origin) {
		return false
	}
	if replaces != nil && !s.has(*replaces) {
		return false
	}
	return true
}

// integrate встраивает новый элемент справа от origin.
// Параллельные вставки после одного и того же origin упорядочиваются по
// убыванию идентификатора: правее origin пропускаются все более новые элементы.
// Потомки более новых элементов тоже новее (часы Лампорта), поэтому
// пропускаются вместе с ними. Вызывающий обязан проверить ready.
func (s *rga) integrate(it *item) {
	pos := 0
	if it.origin != nil {
		pos = s.position(*it.origin) + 1
	}
	for pos < len(s.items) && s.items[pos].id.IsNewerThan(it.id) {
		pos++
	}

	s.items = append(s.items, nil)
	copy(s.items[pos+1:], s.items[pos:])
	s.items[pos] = it
	s.byID[it.id] = it

	if it.replaces != nil {
		replaced := s.byID[*it.replaces]
		s.replacedBy[replaced.id] = append(s.replacedBy[replaced.id], it)
		if replaced.pureDeleted || replaced.killed {
			it.killed = true
			it.row = nil
		}
	}
}

// remove помечает элемент удаленным. replace=true означает удаление в составе
// замены строки (правки ячейки). Явное удаление скрывает и все замены этой
// строки, сделанные параллельно: удаление побеждает правку.
// Возвращает true, если изменилось видимое содержимое.
func (s *rga) remove(target models.OpID, replace bool) bool {
	it, ok := s.byID[target]
	if !ok {
		return false
	}

	changed := it.visible()
	it.deleted = true
	it.row = nil

	if !replace && !it.pureDeleted {
		it.pureDeleted = true
		if s.kill(target) {
			changed = true
		}
	}
	return changed
}

func (s *rga) kill(id models.OpID) bool {
	changed := false
	for _, child := range s.replacedBy[id] {
		if child.killed {
			continue
		}
		if child.visible() {
			changed = true
		}
		child.killed = true
		child.row = nil
		if s.kill(child.id) {
			changed = true
		}
	}
	return changed
}
