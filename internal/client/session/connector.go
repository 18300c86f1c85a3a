// Package session связывает реплицируемый документ с комнатой ретранслятора
// и отражает состояние соединения и присутствия участников.
package session

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/models"
	"github.com/iudanet/editgrid/internal/presence"
	"github.com/iudanet/editgrid/internal/validation"
)

// ConnectionStatus - состояние подключения к комнате.
type ConnectionStatus string

const (
	StatusIdle         ConnectionStatus = "idle"
	StatusLoading      ConnectionStatus = "loading"
	StatusConnected    ConnectionStatus = "connected"
	StatusReconnecting ConnectionStatus = "reconnecting"
)

// RoomErrorType - вид ошибки комнаты.
type RoomErrorType string

const (
	ErrInvalidRoomID RoomErrorType = "invalid_room_id"
	ErrRoomNotFound  RoomErrorType = "room_not_found"
)

// RoomError - единственная ошибка, которую видит слой отображения.
type RoomError struct {
	Type    RoomErrorType `json:"type"`
	Message string        `json:"message"`
}

func (e *RoomError) Error() string {
	return e.Message
}

var (
	errInvalidRoomID = RoomError{Type: ErrInvalidRoomID, Message: "Invalid room link."}
	errRoomNotFound  = RoomError{Type: ErrRoomNotFound, Message: "This shared document doesn't exist or has expired."}
)

// Info - снимок состояния совместной работы.
type Info struct {
	RoomError *RoomError
	Status    ConnectionStatus
	Remote    []models.RemoteUser
	Local     models.UserState
}

// Connector управляет подключением одного документа к комнате.
// Все изменения состояния приходят от провайдера; сам Connector соединение
// не повторяет.
type Connector struct {
	factory Factory
	logger  *slog.Logger

	provider Provider
	doc      *crdt.Document
	roomErr  *RoomError
	roomID   string
	status   ConnectionStatus
	remote   []models.RemoteUser
	local    models.UserState
	unsubs   []func()

	listeners []func(Info)

	// generation отсекает события провайдера, закрытого Deactivate
	generation     int
	wasEverSynced  bool
	existenceCheck bool

	mu sync.Mutex
}

// NewConnector создает коннектор в состоянии idle.
func NewConnector(factory Factory, local models.UserState, logger *slog.Logger) *Connector {
	local.SelectedCell = nil
	return &Connector{
		factory: factory,
		logger:  logger,
		local:   local,
		status:  StatusIdle,
		remote:  []models.RemoteUser{},
	}
}

// Activate подключает документ doc к комнате sessionID. Предыдущее
// подключение закрывается. Пустой sessionID оставляет коннектор в idle без
// сетевой активности.
func (c *Connector) Activate(sessionID string, doc *crdt.Document) {
	c.Deactivate()

	if sessionID == "" || doc == nil {
		return
	}

	if err := validation.ValidateRoomID(sessionID); err != nil {
		c.logger.Warn("Invalid room id", "room_id", sessionID, "error", err)
		c.mu.Lock()
		roomErr := errInvalidRoomID
		c.roomErr = &roomErr
		c.status = StatusIdle
		c.mu.Unlock()
		c.notify()
		return
	}

	provider, err := c.factory(sessionID, doc)
	if err != nil {
		// соединение не создано; остаемся в loading, локальные правки доступны
		c.logger.Error("Failed to create provider", "room_id", sessionID, "error", err)
		c.mu.Lock()
		c.roomID = sessionID
		c.doc = doc
		c.status = StatusLoading
		c.mu.Unlock()
		c.notify()
		return
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.provider = provider
	c.doc = doc
	c.roomID = sessionID
	c.status = StatusLoading
	local := c.local
	c.mu.Unlock()

	awareness := provider.Awareness()
	unsubs := []func(){
		awareness.OnChange(func(presence.Change) { c.handleAwareness(gen, awareness) }),
		provider.OnStatus(func(s TransportStatus) { c.handleStatus(gen, s) }),
		provider.OnSync(func(synced bool) { c.handleSync(gen, synced) }),
	}

	c.mu.Lock()
	if c.generation == gen {
		c.unsubs = unsubs
	}
	c.mu.Unlock()

	if err := awareness.SetLocalStateField(presence.UserField, local); err != nil {
		c.logger.Warn("Failed to publish presence", "room_id", sessionID, "error", err)
	}

	c.logger.Info("Session activated", "room_id", sessionID, "replica_id", doc.ReplicaID())
	c.notify()

	if provider.Synced() {
		c.handleSync(gen, true)
	}
}

// Deactivate снимает подписки и закрывает соединение. Повторный вызов безопасен.
func (c *Connector) Deactivate() {
	c.mu.Lock()
	provider := c.provider
	unsubs := c.unsubs
	wasActive := provider != nil || c.roomErr != nil || c.status != StatusIdle

	c.generation++
	c.provider = nil
	c.unsubs = nil
	c.doc = nil
	c.roomID = ""
	c.roomErr = nil
	c.status = StatusIdle
	c.local.SelectedCell = nil
	c.remote = []models.RemoteUser{}
	c.wasEverSynced = false
	c.existenceCheck = false
	c.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	if provider != nil {
		if err := provider.Close(); err != nil {
			c.logger.Warn("Failed to close provider", "error", err)
		}
	}
	if wasActive {
		c.notify()
	}
}

// Info returns the current collaboration state.
func (c *Connector) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infoLocked()
}

// Status returns the connection status.
func (c *Connector) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RoomError returns the room error, nil when there is none.
func (c *Connector) RoomError() *RoomError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.roomErr == nil {
		return nil
	}
	roomErr := *c.roomErr
	return &roomErr
}

// SetSelectedCell публикует выделенную ячейку локального участника.
// Содержимое документа не меняется. Без активного соединения ничего не делает.
func (c *Connector) SetSelectedCell(cell *models.SelectedCell) {
	c.mu.Lock()
	provider := c.provider
	if provider == nil {
		c.mu.Unlock()
		return
	}
	c.local.SelectedCell = nil
	if cell != nil {
		selected := *cell
		c.local.SelectedCell = &selected
	}
	user := c.local
	c.mu.Unlock()

	if err := provider.Awareness().SetLocalStateField(presence.UserField, user); err != nil {
		c.logger.Warn("Failed to publish selected cell", "error", err)
	}
	c.notify()
}

// Subscribe регистрирует слушателя изменений Info.
func (c *Connector) Subscribe(fn func(Info)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listeners = append(c.listeners, fn)
	idx := len(c.listeners) - 1
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.listeners[idx] = nil
	}
}

func (c *Connector) handleStatus(gen int, status TransportStatus) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	provider := c.provider
	c.mu.Unlock()

	// Synced вызывается вне блокировки: провайдер может держать свою
	synced := provider != nil && provider.Synced()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	prev := c.status
	switch status {
	case TransportConnected:
		switch {
		case synced:
			c.status = StatusConnected
		case c.wasEverSynced:
			// соединение восстановлено, ждем повторной синхронизации
			c.status = StatusReconnecting
		default:
			c.status = StatusLoading
		}
	case TransportDisconnected:
		if c.wasEverSynced {
			c.status = StatusReconnecting
		}
	case TransportConnecting:
		if c.wasEverSynced {
			c.status = StatusReconnecting
		} else {
			c.status = StatusLoading
		}
	}
	changed := prev != c.status
	roomID := c.roomID
	next := c.status
	c.mu.Unlock()

	if changed {
		c.logger.Debug("Connection status changed", "room_id", roomID, "status", next)
		c.notify()
	}
}

func (c *Connector) handleSync(gen int, synced bool) {
	if !synced {
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.wasEverSynced = true
	c.status = StatusConnected
	checkExistence := !c.existenceCheck
	c.existenceCheck = true
	doc := c.doc
	roomID := c.roomID
	c.mu.Unlock()

	var roomErr *RoomError
	if checkExistence && doc != nil && !validation.IsReservedRoom(roomID) {
		// существующая комната обязана содержать данные
		if doc.Read().IsEmpty() {
			notFound := errRoomNotFound
			roomErr = &notFound
			c.logger.Warn("Room is empty after sync", "room_id", roomID)
		}
	}

	c.mu.Lock()
	if gen == c.generation {
		c.roomErr = roomErr
	}
	c.mu.Unlock()

	if checkExistence {
		c.logger.Info("Session synced", "room_id", roomID)
	}
	c.notify()
}

func (c *Connector) handleAwareness(gen int, awareness *presence.Awareness) {
	users := presence.RemoteUsers(awareness)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.remote = users
	c.mu.Unlock()

	c.notify()
}

func (c *Connector) infoLocked() Info {
	info := Info{
		Status: c.status,
		Local:  c.local,
		Remote: append([]models.RemoteUser(nil), c.remote...),
	}
	if c.local.SelectedCell != nil {
		selected := *c.local.SelectedCell
		info.Local.SelectedCell = &selected
	}
	if c.roomErr != nil {
		roomErr := *c.roomErr
		info.RoomError = &roomErr
	}
	return info
}

func (c *Connector) notify() {
	c.mu.Lock()
	info := c.infoLocked()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		if fn != nil {
			fn(info)
		}
	}
}
