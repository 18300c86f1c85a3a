package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/presence"
	"github.com/iudanet/editgrid/internal/server/storage"
	"github.com/iudanet/editgrid/pkg/api"
)

// Метки происхождения изменений серверной реплики.
const (
	originStorage = "storage"
	originBus     = "bus"
	// originServer - удаление записей присутствия отключившихся клиентов
	originServer = "server"
)

// Room - серверная реплика одной комнаты и ее подключенные клиенты.
type Room struct {
	updatedAt time.Time
	hub       *Hub
	doc       *crdt.Document
	awareness *presence.Awareness
	logger    *slog.Logger
	clients   map[string]*client
	id        string
	unsubs    []func()

	// refs защищен hub.mu
	refs int

	loadMu sync.Mutex
	mu     sync.Mutex
	dirty  atomic.Bool
	loaded bool
}

func newRoom(id string, hub *Hub) *Room {
	return &Room{
		id:        id,
		hub:       hub,
		doc:       crdt.NewDocument("relay-" + uuid.NewString()),
		awareness: presence.NewAwareness("relay-" + uuid.NewString()),
		logger:    hub.logger.With("room_id", id),
		clients:   make(map[string]*client),
	}
}

// load восстанавливает реплику из снимка и подписывается на изменения.
// Выполняется один раз; после ошибки следующий клиент повторит загрузку.
func (r *Room) load(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if r.loaded {
		return nil
	}

	restored := false
	snapshot, err := r.hub.store.GetSnapshot(ctx, r.id)
	switch {
	case errors.Is(err, storage.ErrSnapshotNotFound):
	case err != nil:
		return fmt.Errorf("failed to load room %s: %w", r.id, err)
	default:
		if err := r.doc.ApplyUpdate(snapshot.State, originStorage); err != nil {
			return fmt.Errorf("failed to restore room %s: %w", r.id, err)
		}
		r.mu.Lock()
		r.updatedAt = snapshot.UpdatedAt
		r.mu.Unlock()
		restored = true
	}

	r.unsubs = append(r.unsubs,
		r.doc.OnUpdate(r.onDocUpdate),
		r.awareness.OnUpdate(r.onAwarenessUpdate),
		r.awareness.OnChange(r.onAwarenessChange),
	)

	if bus := r.hub.bus; bus != nil {
		unsubscribe, err := bus.Subscribe(ctx, r.id, r.onBusFrame)
		if err != nil {
			r.logger.Warn("Room fan-out disabled", "error", err)
		} else {
			r.unsubs = append(r.unsubs, unsubscribe)
			// догоняем правки, еще не сохраненные другими экземплярами
			r.publish(ctx, api.Frame{Type: api.FrameSyncStep1, StateVector: r.doc.StateVector()})
		}
	}

	r.loaded = true
	r.logger.Info("Room opened", "restored", restored)
	return nil
}

// serve регистрирует клиента, отправляет ему состояние комнаты и читает его
// кадры до разрыва соединения.
func (r *Room) serve(ctx context.Context, c *client) {
	r.mu.Lock()
	r.clients[c.id] = c
	count := len(r.clients)
	r.mu.Unlock()
	r.logger.Info("Client joined", "client_id", c.id, "clients", count)

	c.enqueue(api.Frame{Type: api.FrameSyncStep1, StateVector: r.doc.StateVector()})
	if len(r.awareness.States()) > 0 {
		if state, err := r.awareness.EncodeUpdate(); err == nil {
			c.enqueue(api.Frame{Type: api.FrameAwareness, Payload: state})
		}
	}

	go c.writePump()
	err := c.readPump(ctx, func(frame api.Frame) {
		r.handleFrame(c, frame)
	})

	r.mu.Lock()
	delete(r.clients, c.id)
	ids := c.presenceIDs()
	count = len(r.clients)
	c.stop()
	r.mu.Unlock()

	// оставшиеся клиенты узнают об уходе участника
	r.awareness.RemoveStates(ids, originServer)
	r.logger.Info("Client left", "client_id", c.id, "clients", count, "reason", err)
}

func (r *Room) handleFrame(c *client, frame api.Frame) {
	switch frame.Type {
	case api.FrameSyncStep1:
		diff, err := r.doc.EncodeStateAsUpdate(frame.StateVector)
		if err != nil {
			r.logger.Error("Failed to encode sync step 2", "error", err)
			return
		}
		c.enqueue(api.Frame{Type: api.FrameSyncStep2, Payload: diff})

	case api.FrameSyncStep2, api.FrameUpdate:
		if err := r.doc.ApplyUpdate(frame.Payload, c.id); err != nil {
			r.logger.Warn("Rejected client update", "client_id", c.id, "error", err)
		}

	case api.FrameAwareness:
		if err := r.awareness.ApplyUpdate(frame.Payload, c.id); err != nil {
			r.logger.Warn("Rejected awareness update", "client_id", c.id, "error", err)
		}
	}
}

// onDocUpdate рассылает новые операции всем, кроме источника.
func (r *Room) onDocUpdate(update []byte, origin string, _ bool) {
	if origin == originStorage {
		return
	}
	r.dirty.Store(true)

	frame := api.Frame{Type: api.FrameUpdate, Payload: update}
	r.broadcast(frame, origin)
	if origin != originBus {
		r.publish(context.Background(), frame)
	}
}

func (r *Room) onAwarenessUpdate(update []byte, origin string) {
	frame := api.Frame{Type: api.FrameAwareness, Payload: update}
	r.broadcast(frame, origin)
	if origin != originBus {
		r.publish(context.Background(), frame)
	}
}

// onAwarenessChange запоминает, какие записи присутствия принадлежат
// соединению, чтобы снять их при разрыве.
func (r *Room) onAwarenessChange(change presence.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[change.Origin]
	if !ok {
		return
	}
	// запись переходит к соединению, которое прислало ее последним:
	// клиент мог переподключиться раньше, чем мы заметили разрыв
	for _, id := range slices.Concat(change.Added, change.Updated) {
		for _, other := range r.clients {
			delete(other.presence, id)
		}
		c.presence[id] = struct{}{}
	}
	for _, id := range change.Removed {
		delete(c.presence, id)
	}
}

func (r *Room) onBusFrame(data []byte) {
	frame, err := api.DecodeFrame(data)
	if err != nil {
		r.logger.Warn("Dropping malformed bus frame", "error", err)
		return
	}

	switch frame.Type {
	case api.FrameSyncStep1:
		diff, err := r.doc.EncodeStateAsUpdate(frame.StateVector)
		if err != nil {
			r.logger.Error("Failed to encode sync step 2", "error", err)
			return
		}
		r.publish(context.Background(), api.Frame{Type: api.FrameSyncStep2, Payload: diff})
	case api.FrameSyncStep2, api.FrameUpdate:
		if err := r.doc.ApplyUpdate(frame.Payload, originBus); err != nil {
			r.logger.Warn("Rejected bus update", "error", err)
		}
	case api.FrameAwareness:
		if err := r.awareness.ApplyUpdate(frame.Payload, originBus); err != nil {
			r.logger.Warn("Rejected bus awareness update", "error", err)
		}
	}
}

// broadcast ставит кадр в очередь всем клиентам, кроме except.
// Клиент с переполненной очередью отключается.
func (r *Room) broadcast(frame api.Frame, except string) {
	data, err := api.EncodeFrame(frame)
	if err != nil {
		r.logger.Error("Failed to encode frame", "error", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		if id == except {
			continue
		}
		if !c.offer(data) {
			r.logger.Warn("Dropping slow client", "client_id", id)
			c.kick()
		}
	}
}

func (r *Room) publish(ctx context.Context, frame api.Frame) {
	bus := r.hub.bus
	if bus == nil {
		return
	}
	data, err := api.EncodeFrame(frame)
	if err != nil {
		r.logger.Error("Failed to encode frame", "error", err)
		return
	}
	if err := bus.Publish(ctx, r.id, data); err != nil {
		r.logger.Warn("Failed to publish frame", "type", frame.Type, "error", err)
	}
}

// flush сохраняет снимок, если реплика менялась с прошлого сохранения.
func (r *Room) flush(ctx context.Context) error {
	if !r.dirty.Swap(false) {
		return nil
	}

	state, err := r.doc.EncodeStateAsUpdate(nil)
	if err != nil {
		r.dirty.Store(true)
		return fmt.Errorf("failed to encode room state: %w", err)
	}

	now := time.Now()
	if err := r.hub.store.SaveSnapshot(ctx, &storage.RoomSnapshot{RoomID: r.id, State: state, UpdatedAt: now}); err != nil {
		r.dirty.Store(true)
		return err
	}

	r.mu.Lock()
	r.updatedAt = now
	r.mu.Unlock()
	r.logger.Debug("Room snapshot saved", "bytes", len(state))
	return nil
}

func (r *Room) close() {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	for _, unsubscribe := range r.unsubs {
		unsubscribe()
	}
	r.unsubs = nil
}

func (r *Room) clientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Room) savedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatedAt
}
