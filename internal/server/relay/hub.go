// Package relay - серверная часть комнат: реплика документа на комнату,
// рассылка обновлений и присутствия подключенным клиентам и сохранение
// снимков.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/editgrid/internal/server/storage"
	"github.com/iudanet/editgrid/pkg/api"
)

// Options настраивает комнаты.
type Options struct {
	// SnapshotInterval - период сохранения измененных комнат в Run
	SnapshotInterval time.Duration
	// SendBuffer - очередь исходящих кадров клиента; переполнение отключает клиента
	SendBuffer   int
	WriteTimeout time.Duration
	PongWait     time.Duration
	// MaxFrameSize ограничивает размер входящего кадра
	MaxFrameSize int64
}

func (o Options) withDefaults() Options {
	if o.SnapshotInterval <= 0 {
		o.SnapshotInterval = 30 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.MaxFrameSize <= 0 {
		o.MaxFrameSize = 16 << 20
	}
	return o
}

// Hub держит открытые комнаты. Комната загружается из хранилища при первом
// подключении и выгружается после ухода последнего клиента.
type Hub struct {
	store    storage.SnapshotStorage
	bus      Bus
	logger   *slog.Logger
	rooms    map[string]*Room
	closing  chan struct{}
	opts     Options
	sessions sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

// ErrHubClosed возвращается Serve после остановки Run.
var ErrHubClosed = errors.New("relay is shutting down")

// NewHub создает хаб. bus может быть nil, если экземпляр единственный.
func NewHub(store storage.SnapshotStorage, bus Bus, opts Options, logger *slog.Logger) *Hub {
	return &Hub{
		store:   store,
		bus:     bus,
		logger:  logger,
		rooms:   make(map[string]*Room),
		closing: make(chan struct{}),
		opts:    opts.withDefaults(),
	}
}

// Serve обслуживает websocket-соединение клиента с комнатой до его закрытия.
// Остановка Run закрывает соединение.
func (h *Hub) Serve(ctx context.Context, roomID string, conn *websocket.Conn) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return ErrHubClosed
	}
	h.sessions.Add(1)
	h.mu.Unlock()
	defer h.sessions.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-h.closing:
			cancel()
		case <-ctx.Done():
		}
	}()

	r, err := h.acquire(ctx, roomID)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer h.release(context.WithoutCancel(ctx), r)

	c := newClient(conn, h.opts, r.logger)
	r.serve(ctx, c)
	return nil
}

// Info описывает комнату: открыта ли она на этом экземпляре и есть ли снимок.
func (h *Hub) Info(ctx context.Context, roomID string) (api.RoomInfo, error) {
	info := api.RoomInfo{ID: roomID}

	h.mu.Lock()
	r, open := h.rooms[roomID]
	h.mu.Unlock()
	if open {
		info.Clients = r.clientCount()
		info.UpdatedAt = r.savedAt()
	}

	snapshot, err := h.store.GetSnapshot(ctx, roomID)
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
	case err != nil:
		return api.RoomInfo{}, fmt.Errorf("failed to get snapshot: %w", err)
	default:
		if snapshot.UpdatedAt.After(info.UpdatedAt) {
			info.UpdatedAt = snapshot.UpdatedAt
		}
		info.Exists = true
	}

	if info.Clients > 0 {
		info.Exists = true
	}
	return info, nil
}

// RoomCount возвращает количество открытых комнат.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Run периодически сохраняет измененные комнаты. При отмене ctx закрывает
// все соединения, дожидается их завершения, сохраняет оставшиеся комнаты и
// возвращает nil.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.opts.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.flushAll(ctx)
		case <-ctx.Done():
			h.mu.Lock()
			if !h.closed {
				h.closed = true
				close(h.closing)
			}
			h.mu.Unlock()

			h.sessions.Wait()
			h.flushAll(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (h *Hub) flushAll(ctx context.Context) {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.Unlock()

	for _, r := range rooms {
		if err := r.flush(ctx); err != nil {
			h.logger.Error("Failed to save room snapshot", "room_id", r.id, "error", err)
		}
	}
}

// acquire открывает комнату (или берет уже открытую) и увеличивает счетчик ссылок.
func (h *Hub) acquire(ctx context.Context, roomID string) (*Room, error) {
	h.mu.Lock()
	r, ok := h.rooms[roomID]
	if !ok {
		r = newRoom(roomID, h)
		h.rooms[roomID] = r
	}
	r.refs++
	h.mu.Unlock()

	if err := r.load(ctx); err != nil {
		h.release(ctx, r)
		return nil, err
	}
	return r, nil
}

// release уменьшает счетчик ссылок. Последний ушедший клиент сохраняет снимок;
// комната выгружается, только если за время сохранения никто не подключился.
func (h *Hub) release(ctx context.Context, r *Room) {
	h.mu.Lock()
	r.refs--
	last := r.refs == 0
	h.mu.Unlock()
	if !last {
		return
	}

	if err := r.flush(ctx); err != nil {
		h.logger.Error("Failed to save room snapshot", "room_id", r.id, "error", err)
	}

	h.mu.Lock()
	evict := r.refs == 0 && h.rooms[r.id] == r
	if evict {
		delete(h.rooms, r.id)
	}
	h.mu.Unlock()

	if evict {
		r.close()
		h.logger.Info("Room closed", "room_id", r.id)
	}
}
