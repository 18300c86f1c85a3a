// Package relay реализует транспорт session.Provider поверх websocket-соединения
// с комнатой ретранслятора.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"

	"github.com/iudanet/editgrid/internal/client/session"
	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/presence"
	"github.com/iudanet/editgrid/pkg/api"
)

// OriginRelay - метка транзакций и обновлений присутствия, пришедших от
// ретранслятора. Такие изменения обратно не отправляются.
const OriginRelay = "relay"

// Options настраивает подключение к ретранслятору.
type Options struct {
	Dialer *websocket.Dialer
	// ServerURL - базовый адрес сервера, например http://localhost:8080
	ServerURL       string
	InitialInterval time.Duration
	MaxInterval     time.Duration
	WriteTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 500 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 30 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	return o
}

// RoomURL строит адрес websocket-эндпоинта комнаты.
func RoomURL(serverURL, roomID string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = fmt.Sprintf("/api/v1/rooms/%s/ws", url.PathEscape(roomID))
	return u.String(), nil
}

// Provider поддерживает соединение документа с комнатой, переподключаясь с
// экспоненциальной задержкой до вызова Close.
type Provider struct {
	conn      *websocket.Conn
	doc       *crdt.Document
	awareness *presence.Awareness
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}

	statusSubs []func(session.TransportStatus)
	syncSubs   []func(bool)
	unsubs     []func()

	opts   Options
	url    string
	roomID string

	mu      sync.Mutex
	writeMu sync.Mutex
	subMu   sync.Mutex
	synced  bool
	closed  bool
}

var _ session.Provider = (*Provider)(nil)

// NewFactory возвращает фабрику провайдеров для session.Connector.
func NewFactory(opts Options, logger *slog.Logger) session.Factory {
	return func(roomID string, doc *crdt.Document) (session.Provider, error) {
		return Dial(opts, roomID, doc, logger)
	}
}

// Dial запускает фоновое подключение к комнате roomID. Возвращается сразу;
// состояние соединения сообщается через OnStatus и OnSync.
func Dial(opts Options, roomID string, doc *crdt.Document, logger *slog.Logger) (*Provider, error) {
	opts = opts.withDefaults()
	wsURL, err := RoomURL(opts.ServerURL, roomID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Provider{
		doc:       doc,
		awareness: presence.NewAwareness(doc.ReplicaID()),
		logger:    logger.With("room_id", roomID),
		cancel:    cancel,
		done:      make(chan struct{}),
		opts:      opts,
		url:       wsURL,
		roomID:    roomID,
	}

	p.unsubs = []func(){
		doc.OnUpdate(p.forwardUpdate),
		p.awareness.OnUpdate(p.forwardAwareness),
	}

	go p.run(ctx)
	return p, nil
}

// OnStatus подписывает fn на изменения состояния соединения.
func (p *Provider) OnStatus(fn func(session.TransportStatus)) func() {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	p.statusSubs = append(p.statusSubs, fn)
	idx := len(p.statusSubs) - 1
	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		p.statusSubs[idx] = nil
	}
}

// OnSync подписывает fn на изменения признака синхронизации.
func (p *Provider) OnSync(fn func(bool)) func() {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	p.syncSubs = append(p.syncSubs, fn)
	idx := len(p.syncSubs) - 1
	return func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		p.syncSubs[idx] = nil
	}
}

// Synced reports whether the current connection completed sync step 2.
func (p *Provider) Synced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.synced
}

// Awareness returns the presence channel of this connection.
func (p *Provider) Awareness() *presence.Awareness {
	return p.awareness
}

// Close сообщает о уходе участника, закрывает соединение и дожидается
// остановки фоновой горутины. Повторный вызов безопасен.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	// запись об уходе уходит в соединение, пока оно еще открыто
	p.awareness.ClearLocalState()

	for _, unsubscribe := range p.unsubs {
		unsubscribe()
	}

	p.cancel()
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn != nil {
		p.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		p.writeMu.Unlock()
		_ = conn.Close()
	}

	<-p.done
	p.logger.Debug("Relay provider closed")
	return nil
}

func (p *Provider) run(ctx context.Context) {
	defer close(p.done)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.opts.InitialInterval
	b.MaxInterval = p.opts.MaxInterval
	b.MaxElapsedTime = 0 // повторяем до Close
	b.Reset()

	for {
		p.emitStatus(session.TransportConnecting)

		conn, _, err := p.opts.Dialer.DialContext(ctx, p.url, nil)
		if err == nil {
			b.Reset()
			err = p.serve(ctx, conn)
		}
		if ctx.Err() != nil {
			return
		}

		p.logger.Warn("Relay connection lost", "error", err)
		p.emitStatus(session.TransportDisconnected)

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			wait = p.opts.MaxInterval
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// serve обслуживает одно установленное соединение до его разрыва.
func (p *Provider) serve(ctx context.Context, conn *websocket.Conn) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		_ = conn.Close()
		return context.Canceled
	}
	p.conn = conn
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.conn = nil
		wasSynced := p.synced
		p.synced = false
		p.mu.Unlock()
		_ = conn.Close()
		if wasSynced && ctx.Err() == nil {
			p.emitSync(false)
		}
	}()

	p.logger.Info("Connected to relay")
	p.emitStatus(session.TransportConnected)

	if err := p.send(api.Frame{Type: api.FrameSyncStep1, StateVector: p.doc.StateVector()}); err != nil {
		return err
	}
	// после разрыва сервер уже снял нашу запись, поэтому clock увеличивается
	if state, err := p.awareness.RenewLocalState(); err == nil && state != nil {
		if err := p.send(api.Frame{Type: api.FrameAwareness, Payload: state}); err != nil {
			return err
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		frame, err := api.DecodeFrame(data)
		if err != nil {
			p.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}
		if err := p.handleFrame(frame); err != nil {
			return err
		}
	}
}

func (p *Provider) handleFrame(frame api.Frame) error {
	switch frame.Type {
	case api.FrameSyncStep1:
		diff, err := p.doc.EncodeStateAsUpdate(frame.StateVector)
		if err != nil {
			return fmt.Errorf("encode sync step 2: %w", err)
		}
		return p.send(api.Frame{Type: api.FrameSyncStep2, Payload: diff})

	case api.FrameSyncStep2:
		if err := p.doc.ApplyUpdate(frame.Payload, OriginRelay); err != nil {
			p.logger.Warn("Failed to apply sync step 2", "error", err)
			return nil
		}
		p.mu.Lock()
		first := !p.synced
		p.synced = true
		p.mu.Unlock()
		if first {
			p.emitSync(true)
		}

	case api.FrameUpdate:
		if err := p.doc.ApplyUpdate(frame.Payload, OriginRelay); err != nil {
			p.logger.Warn("Failed to apply update", "error", err)
		}

	case api.FrameAwareness:
		if err := p.awareness.ApplyUpdate(frame.Payload, OriginRelay); err != nil {
			p.logger.Warn("Failed to apply awareness update", "error", err)
		}
	}
	return nil
}

func (p *Provider) forwardUpdate(update []byte, origin string, _ bool) {
	if origin == OriginRelay {
		return
	}
	if err := p.send(api.Frame{Type: api.FrameUpdate, Payload: update}); err != nil && !errors.Is(err, errNotConnected) {
		p.logger.Debug("Update not sent, will resync on reconnect", "error", err)
	}
}

func (p *Provider) forwardAwareness(update []byte, origin string) {
	if origin == OriginRelay {
		return
	}
	if err := p.send(api.Frame{Type: api.FrameAwareness, Payload: update}); err != nil && !errors.Is(err, errNotConnected) {
		p.logger.Debug("Awareness update not sent", "error", err)
	}
}

var errNotConnected = errors.New("relay not connected")

func (p *Provider) send(frame api.Frame) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return errNotConnected
	}

	data, err := api.EncodeFrame(frame)
	if err != nil {
		return err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(p.opts.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s frame: %w", frame.Type, err)
	}
	return nil
}

func (p *Provider) emitStatus(status session.TransportStatus) {
	p.subMu.Lock()
	subs := slices.Clone(p.statusSubs)
	p.subMu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(status)
		}
	}
}

func (p *Provider) emitSync(synced bool) {
	p.subMu.Lock()
	subs := slices.Clone(p.syncSubs)
	p.subMu.Unlock()

	for _, fn := range subs {
		if fn != nil {
			fn(synced)
		}
	}
}
