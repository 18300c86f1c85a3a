package models

import (
	"encoding/json"
	"fmt"
)

// OpID идентифицирует одну операцию над реплицируемым документом.
// Пара (Clock, Replica) глобально уникальна: Clock - значение часов Лампорта
// реплики в момент создания операции, Replica - идентификатор реплики (UUID).
type OpID struct {
	Replica string `json:"r"` // Replica идентификатор реплики, создавшей операцию
	Clock   int64  `json:"c"` // Clock Lamport timestamp операции
}

// IsNewerThan сравнивает два идентификатора по правилу LWW:
// 1. Сначала сравнивается Clock (больший выигрывает)
// 2. При равных Clock сравнивается Replica (лексикографически)
func (id OpID) IsNewerThan(other OpID) bool {
	if id.Clock != other.Clock {
		return id.Clock > other.Clock
	}
	return id.Replica > other.Replica
}

// Less задает полный детерминированный порядок на идентификаторах.
func (id OpID) Less(other OpID) bool {
	return other.IsNewerThan(id)
}

func (id OpID) String() string {
	return fmt.Sprintf("%d@%s", id.Clock, id.Replica)
}

// MetaEntry - значение одного ключа в метаданных документа (LWW-регистр).
// Value хранится как JSON, чтобы один регистр мог держать и строку, и список строк.
type MetaEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	ID    OpID            `json:"id"`
}

// IsNewerThan reports whether e must replace other under last-writer-wins.
func (e *MetaEntry) IsNewerThan(other *MetaEntry) bool {
	return e.ID.IsNewerThan(other.ID)
}

// Clone создает глубокую копию записи
func (e *MetaEntry) Clone() *MetaEntry {
	value := make(json.RawMessage, len(e.Value))
	copy(value, e.Value)

	return &MetaEntry{
		Key:   e.Key,
		Value: value,
		ID:    e.ID,
	}
}

// StateVector хранит для каждой реплики максимальный Clock уже учтенных операций.
// Используется на шаге синхронизации, чтобы запросить только недостающие операции.
type StateVector map[string]int64

// Covers reports whether the operation id is already reflected in the vector.
func (sv StateVector) Covers(id OpID) bool {
	return sv != nil && sv[id.Replica] >= id.Clock
}

// Observe поднимает значение для реплики операции, если оно меньше.
func (sv StateVector) Observe(id OpID) {
	if sv[id.Replica] < id.Clock {
		sv[id.Replica] = id.Clock
	}
}

// Clone returns an independent copy.
func (sv StateVector) Clone() StateVector {
	out := make(StateVector, len(sv))
	for k, v := range sv {
		out[k] = v
	}
	return out
}
