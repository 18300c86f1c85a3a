package crdt

import (
	"sort"

	"github.com/iudanet/editgrid/internal/models"
)

// LWWMap представляет Last-Write-Wins Map CRDT: каждый ключ - независимый
// LWW-регистр. Используется для метаданных документа (headers, filename,
// firstRowValues). Не потокобезопасен: синхронизацию обеспечивает Document.
type LWWMap struct {
	entries map[string]*models.MetaEntry // map[key]entry
}

// NewLWWMap создает пустую карту.
func NewLWWMap() *LWWMap {
	return &LWWMap{
		entries: make(map[string]*models.MetaEntry),
	}
}

// Set записывает значение, если оно новее текущего.
// Возвращает true, если значение ключа изменилось.
// Операция коммутативна и идемпотентна.
func (m *LWWMap) Set(entry *models.MetaEntry) bool {
	existing, exists := m.entries[entry.Key]

	// Если ключа нет - добавляем
	if !exists {
		m.entries[entry.Key] = entry.Clone()
		return true
	}

	// Если новая версия новее - обновляем
	if entry.IsNewerThan(existing) {
		m.entries[entry.Key] = entry.Clone()
		return true
	}

	return false
}

// Get возвращает текущую запись ключа или nil.
func (m *LWWMap) Get(key string) *models.MetaEntry {
	entry, exists := m.entries[key]
	if !exists {
		return nil
	}
	return entry.Clone()
}

// EntriesMissingFrom возвращает записи, которых еще нет у реплики с вектором sv,
// отсортированные по ключу. Пустой sv дает все записи.
func (m *LWWMap) EntriesMissingFrom(sv models.StateVector) []*models.MetaEntry {
	result := make([]*models.MetaEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		if sv.Covers(entry.ID) {
			continue
		}
		result = append(result, entry.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Len returns the number of keys.
func (m *LWWMap) Len() int {
	return len(m.entries)
}
