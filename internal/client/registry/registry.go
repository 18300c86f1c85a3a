// Package registry хранит единственный живой экземпляр документа для каждого
// ключа сессии и выполняет однократную миграцию локального документа в
// совместный.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tiendc/go-deepcopy"
	"golang.org/x/sync/singleflight"

	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
	"github.com/iudanet/editgrid/internal/table"
)

// LocalKey - ключ документа локального режима (без сессии).
const LocalKey = ""

var (
	// ErrAlreadyShared возвращается, если для целевой сессии уже есть документ.
	ErrAlreadyShared = errors.New("document for session already exists")
	// ErrEmptySessionID возвращается при миграции без идентификатора сессии.
	ErrEmptySessionID = errors.New("session id is empty")
)

// Registry сопоставляет ключу сессии ровно один экземпляр документа.
// Документы создаются лениво и живут до Clear.
type Registry struct {
	docs      map[string]*crdt.Document
	logger    *slog.Logger
	migration singleflight.Group
	mu        sync.Mutex
}

// New создает пустой реестр.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		docs:   make(map[string]*crdt.Document),
		logger: logger,
	}
}

// GetActiveDoc возвращает документ сессии sessionID, создавая его при первом
// обращении. Пустой sessionID означает локальный документ. Повторные вызовы
// с тем же ключом возвращают тот же экземпляр.
func (r *Registry) GetActiveDoc(sessionID string) *crdt.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	if doc, ok := r.docs[sessionID]; ok {
		return doc
	}

	// новая реплика на каждый запуск: часы стартуют с нуля, и старый
	// идентификатор повторил бы уже выданные (clock, replica)
	doc := crdt.NewDocument("")
	r.docs[sessionID] = doc
	r.logger.Debug("Document created", "session_id", sessionID, "replica_id", doc.ReplicaID())
	return doc
}

// MigrateLocalToCollaborative создает документ для newSessionID и одной
// транзакцией с меткой migration копирует в него строки и метаданные
// локального документа. К возврату новый документ уже содержит данные.
// Параллельные вызовы для одной сессии выполняют миграцию один раз.
func (r *Registry) MigrateLocalToCollaborative(newSessionID string) (*crdt.Document, error) {
	if newSessionID == LocalKey {
		return nil, ErrEmptySessionID
	}

	v, err, shared := r.migration.Do(newSessionID, func() (any, error) {
		return r.migrate(newSessionID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("Concurrent migration joined", "session_id", newSessionID)
	}
	return v.(*crdt.Document), nil
}

func (r *Registry) migrate(newSessionID string) (*crdt.Document, error) {
	r.mu.Lock()
	if _, exists := r.docs[newSessionID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("migrate to %s: %w", newSessionID, ErrAlreadyShared)
	}
	local, ok := r.docs[LocalKey]
	if !ok {
		local = crdt.NewDocument("")
		r.docs[LocalKey] = local
	}
	doc := crdt.NewDocument("")
	r.mu.Unlock()

	var snap models.Snapshot
	if err := deepcopy.Copy(&snap, local.Read()); err != nil {
		return nil, fmt.Errorf("failed to copy local document: %w", err)
	}
	table.Copy(doc, snap, table.OriginMigration)

	// документ публикуется только заполненным
	r.mu.Lock()
	if _, exists := r.docs[newSessionID]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("migrate to %s: %w", newSessionID, ErrAlreadyShared)
	}
	r.docs[newSessionID] = doc
	r.mu.Unlock()

	r.logger.Info("Local document migrated",
		"session_id", newSessionID,
		"rows", len(snap.Rows),
		"headers", len(snap.Headers),
	)
	return doc, nil
}

// Clear удаляет экземпляр документа сессии из реестра.
// Данные во внешних хранилищах не затрагиваются.
func (r *Registry) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, sessionID)
}

// ClearAll drops every cached document.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = make(map[string]*crdt.Document)
}
