// Package draft переносит отложенный черновик импорта в локальный документ.
package draft

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/iudanet/editgrid/internal/client/storage"
	"github.com/iudanet/editgrid/internal/table"
)

// Status - состояние одноразового разрешения черновика.
type Status int

const (
	NotStarted Status = iota
	InProgress
	Done
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Resolver применяет черновик к документу не более одного раза за время
// жизни документа. Ошибки хранилища не возвращаются: отсутствие или
// недоступность черновика означают "нечего делать".
type Resolver struct {
	drafts storage.DraftStorage
	doc    table.Document
	logger *slog.Logger
	mu     sync.Mutex
	status Status
}

// NewResolver создает резолвер для документа doc.
func NewResolver(drafts storage.DraftStorage, doc table.Document, logger *slog.Logger) *Resolver {
	return &Resolver{
		drafts: drafts,
		doc:    doc,
		logger: logger,
	}
}

// Status returns the current state.
func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Resolving reports whether the resolver still gates the ready state.
func (r *Resolver) Resolving(sessionID string) bool {
	return sessionID == "" && r.Status() != Done
}

// Resolve проверяет наличие черновика и, если он есть, заменяет им
// содержимое документа одной транзакцией с меткой draft, затем удаляет
// черновик. При активной сессии ничего не делает. Возвращает true, если
// черновик был применен этим вызовом.
func (r *Resolver) Resolve(ctx context.Context, sessionID string) bool {
	if sessionID != "" {
		return false
	}

	r.mu.Lock()
	if r.status != NotStarted {
		r.mu.Unlock()
		return false
	}
	r.status = InProgress
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.status = Done
		r.mu.Unlock()
	}()

	draft, err := r.drafts.GetDraft(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrDraftNotFound) {
			r.logger.Warn("Failed to load draft, treating as absent", "error", err)
		}
		return false
	}
	if draft == nil {
		return false
	}

	table.Populate(r.doc, *draft, table.OriginDraft)
	r.logger.Info("Draft applied",
		"filename", draft.Metadata.Filename,
		"rows", len(draft.Table.Rows),
	)

	if err := r.drafts.DeleteDraft(ctx); err != nil {
		r.logger.Warn("Failed to delete applied draft", "error", err)
	}
	return true
}
