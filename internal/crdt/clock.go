package crdt

import (
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/editgrid/internal/models"
)

// LamportClock - логические часы Лампорта одной реплики документа.
// Каждая локальная операция получает идентификатор (counter, replicaID),
// который строго больше идентификаторов всех операций, уже известных реплике.
type LamportClock struct {
	replicaID string     // уникальный идентификатор реплики
	counter   int64      // монотонно возрастающий счетчик
	mu        sync.Mutex // мьютекс для потокобезопасности
}

// NewLamportClock создает часы для реплики replicaID.
// Пустой replicaID заменяется случайным UUID.
func NewLamportClock(replicaID string) *LamportClock {
	if replicaID == "" {
		replicaID = uuid.New().String()
	}
	return &LamportClock{replicaID: replicaID}
}

// Next увеличивает счетчик и возвращает идентификатор новой локальной операции.
func (lc *LamportClock) Next() models.OpID {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter++
	return models.OpID{Clock: lc.counter, Replica: lc.replicaID}
}

// Observe учитывает timestamp операции, полученной от другой реплики:
// counter = max(counter, remote). Следующий Next вернет значение больше remote.
func (lc *LamportClock) Observe(remote int64) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if remote > lc.counter {
		lc.counter = remote
	}
}

// Now возвращает текущее значение счетчика без его изменения.
func (lc *LamportClock) Now() int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return lc.counter
}

// ReplicaID возвращает идентификатор реплики.
func (lc *LamportClock) ReplicaID() string {
	return lc.replicaID
}
