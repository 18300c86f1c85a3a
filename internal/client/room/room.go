// Package room собирает документ, представление, правки, подключение к
// комнате и разрешение черновика в одно открытое окно таблицы.
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iudanet/editgrid/internal/client/draft"
	"github.com/iudanet/editgrid/internal/client/registry"
	"github.com/iudanet/editgrid/internal/client/seed"
	"github.com/iudanet/editgrid/internal/client/session"
	"github.com/iudanet/editgrid/internal/client/storage"
	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
	"github.com/iudanet/editgrid/internal/table"
	"github.com/iudanet/editgrid/internal/validation"
)

// OriginStorage - метка транзакции восстановления локального документа с диска.
const OriginStorage = "storage"

var (
	// ErrNotLocal возвращается при попытке поделиться уже совместным документом.
	ErrNotLocal = errors.New("document is already shared")
	// ErrShareInProgress возвращается, пока предыдущий Share не завершился.
	ErrShareInProgress = errors.New("share already in progress")
	// ErrNotPlayground возвращается при сбросе документа вне демонстрационной комнаты.
	ErrNotPlayground = errors.New("only the playground can be reset")
)

// Status - состояние окна таблицы для слоя отображения.
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// State - приоритетное состояние окна: ошибка, загрузка комнаты, разрешение
// черновика, пустой локальный документ, готовая таблица.
type State struct {
	Error          *session.RoomError
	Status         Status
	Snapshot       models.Snapshot
	Collaboration  session.Info
	CanShare       bool
	IsReconnecting bool
}

// Deps - зависимости окна.
type Deps struct {
	Registry  *registry.Registry
	Connector *session.Connector
	Drafts    storage.DraftStorage
	// Documents необязателен: хранит локальный документ между запусками
	Documents storage.DocumentStorage
	// SeedSource используется для комнаты playground; nil - seed.DemoSource
	SeedSource seed.Source
	Logger     *slog.Logger
}

// Room - одно открытое окно таблицы.
type Room struct {
	deps Deps

	doc       *crdt.Document
	view      *table.View
	mutations *table.Mutations
	resolver  *draft.Resolver
	seeder    *seed.Seeder

	unsubs    []func()
	resolved  chan struct{}
	sessionID string

	mu      sync.RWMutex
	sharing bool
}

// Open открывает документ сессии sessionID (пустая строка - локальный режим).
// В локальном режиме восстанавливает документ с диска и в фоне применяет
// отложенный черновик; до завершения State сообщает loading.
func Open(ctx context.Context, sessionID string, deps Deps) *Room {
	if deps.SeedSource == nil {
		deps.SeedSource = seed.DemoSource
	}

	r := &Room{deps: deps}
	r.bind(ctx, sessionID)
	return r
}

func (r *Room) bind(ctx context.Context, sessionID string) {
	doc := r.deps.Registry.GetActiveDoc(sessionID)
	if sessionID == registry.LocalKey {
		r.restore(ctx, doc)
	}

	view := table.NewView(doc)
	resolver := draft.NewResolver(r.deps.Drafts, doc, r.deps.Logger)
	resolved := make(chan struct{})

	var seeder *seed.Seeder
	var unsubs []func()
	if validation.IsReservedRoom(sessionID) {
		seeder = seed.NewSeeder(doc, r.deps.SeedSource, r.deps.Logger)
		unsubs = append(unsubs, r.deps.Connector.Subscribe(func(info session.Info) {
			seeder.HandleStatus(ctx, info.Status)
		}))
	}

	r.mu.Lock()
	r.sessionID = sessionID
	r.doc = doc
	r.view = view
	r.mutations = table.NewMutations(doc)
	r.resolver = resolver
	r.resolved = resolved
	r.seeder = seeder
	r.unsubs = unsubs
	r.mu.Unlock()

	if sessionID == registry.LocalKey {
		go func() {
			defer close(resolved)
			resolver.Resolve(ctx, sessionID)
		}()
	} else {
		close(resolved)
	}

	r.deps.Connector.Activate(sessionID, doc)
}

// restore вливает сохраненное состояние локального документа.
func (r *Room) restore(ctx context.Context, doc *crdt.Document) {
	if r.deps.Documents == nil {
		return
	}
	state, err := r.deps.Documents.LoadDocument(ctx, registry.LocalKey)
	if err != nil {
		if !errors.Is(err, storage.ErrDocumentNotFound) {
			r.deps.Logger.Warn("Failed to load local document", "error", err)
		}
		return
	}
	if err := doc.ApplyUpdate(state, OriginStorage); err != nil {
		r.deps.Logger.Warn("Stored local document is corrupted", "error", err)
	}
}

// SessionID returns the active session id, "" in local mode.
func (r *Room) SessionID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessionID
}

// Document returns the active document.
func (r *Room) Document() *crdt.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc
}

// Mutations returns the edit surface of the active document.
func (r *Room) Mutations() *table.Mutations {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mutations
}

// View returns the reactive view of the active document.
func (r *Room) View() *table.View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// DraftResolved закрывается, когда разрешение черновика завершено.
func (r *Room) DraftResolved() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// State вычисляет состояние окна.
func (r *Room) State() State {
	r.mu.RLock()
	sessionID := r.sessionID
	view := r.view
	resolver := r.resolver
	r.mu.RUnlock()

	info := r.deps.Connector.Info()
	if info.RoomError != nil {
		return State{Status: StatusError, Error: info.RoomError, Collaboration: info}
	}

	if sessionID != "" && info.Status == session.StatusLoading {
		return State{Status: StatusLoading, Collaboration: info}
	}

	if resolver.Resolving(sessionID) {
		return State{Status: StatusLoading, Collaboration: info}
	}

	snap := view.Snapshot()
	if len(snap.Rows) == 0 {
		if sessionID == "" {
			return State{Status: StatusEmpty, Collaboration: info, CanShare: true}
		}
		// playground показывает загрузку, пока не заполнен
		if validation.IsReservedRoom(sessionID) {
			return State{Status: StatusLoading, Collaboration: info}
		}
	}

	return State{
		Status:         StatusReady,
		Snapshot:       snap,
		Collaboration:  info,
		CanShare:       sessionID == "",
		IsReconnecting: info.Status == session.StatusReconnecting,
	}
}

// Import заменяет содержимое документа результатом импорта.
func (r *Room) Import(result models.ImportResult) {
	table.Populate(r.Document(), result, table.OriginImport)
}

// Share переносит локальный документ в новую совместную комнату и
// подключается к ней. Возвращает идентификатор комнаты.
func (r *Room) Share(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.sessionID != "" {
		r.mu.Unlock()
		return "", ErrNotLocal
	}
	if r.sharing {
		r.mu.Unlock()
		return "", ErrShareInProgress
	}
	r.sharing = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.sharing = false
		r.mu.Unlock()
	}()

	newID := uuid.NewString()
	if _, err := r.deps.Registry.MigrateLocalToCollaborative(newID); err != nil {
		return "", fmt.Errorf("failed to share document: %w", err)
	}

	r.unbind()
	r.bind(ctx, newID)

	r.deps.Logger.Info("Document shared", "room_id", newID)
	return newID, nil
}

// ResetPlayground возвращает демонстрационной комнате исходные данные.
func (r *Room) ResetPlayground(ctx context.Context) error {
	r.mu.RLock()
	seeder := r.seeder
	r.mu.RUnlock()

	if seeder == nil {
		return ErrNotPlayground
	}
	if err := seeder.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset playground: %w", err)
	}
	r.deps.Logger.Info("Playground reset")
	return nil
}

// SetSelectedCell публикует фокус локального участника.
func (r *Room) SetSelectedCell(cell *models.SelectedCell) {
	r.deps.Connector.SetSelectedCell(cell)
}

// Close сохраняет локальный документ и освобождает соединение.
func (r *Room) Close(ctx context.Context) error {
	r.unbind()

	r.mu.RLock()
	sessionID := r.sessionID
	doc := r.doc
	r.mu.RUnlock()

	if sessionID != registry.LocalKey || r.deps.Documents == nil {
		return nil
	}
	state, err := doc.EncodeStateAsUpdate(nil)
	if err != nil {
		return fmt.Errorf("failed to encode local document: %w", err)
	}
	if err := r.deps.Documents.SaveDocument(ctx, registry.LocalKey, state); err != nil {
		return fmt.Errorf("failed to save local document: %w", err)
	}
	return nil
}

func (r *Room) unbind() {
	r.mu.Lock()
	unsubs := r.unsubs
	view := r.view
	resolved := r.resolved
	r.unsubs = nil
	r.mu.Unlock()

	r.deps.Connector.Deactivate()
	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	if view != nil {
		view.Close()
	}
	// резолвер мог еще работать с документом
	if resolved != nil {
		<-resolved
	}
}
