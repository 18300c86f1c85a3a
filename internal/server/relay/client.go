package relay

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iudanet/editgrid/pkg/api"
)

// client - одно websocket-соединение с комнатой.
type client struct {
	conn   *websocket.Conn
	logger *slog.Logger
	send   chan []byte
	// presence - id записей присутствия, пришедших по этому соединению;
	// защищено mu комнаты
	presence map[string]struct{}
	id       string
	opts     Options
	kickOnce sync.Once
}

func newClient(conn *websocket.Conn, opts Options, logger *slog.Logger) *client {
	id := uuid.NewString()
	return &client{
		conn:     conn,
		logger:   logger.With("client_id", id),
		send:     make(chan []byte, opts.SendBuffer),
		presence: make(map[string]struct{}),
		id:       id,
		opts:     opts,
	}
}

// enqueue кодирует кадр и ставит его в очередь клиента.
func (c *client) enqueue(frame api.Frame) {
	data, err := api.EncodeFrame(frame)
	if err != nil {
		c.logger.Error("Failed to encode frame", "error", err)
		return
	}
	if !c.offer(data) {
		c.logger.Warn("Send queue is full, disconnecting")
		c.kick()
	}
}

// offer не блокируется: false означает переполненную очередь.
func (c *client) offer(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// kick закрывает соединение; readPump и writePump завершатся с ошибкой.
func (c *client) kick() {
	c.kickOnce.Do(func() {
		_ = c.conn.Close()
	})
}

// stop закрывает очередь; вызывается под mu комнаты после удаления клиента.
func (c *client) stop() {
	close(c.send)
}

func (c *client) presenceIDs() []string {
	ids := make([]string, 0, len(c.presence))
	for id := range c.presence {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// readPump читает кадры до ошибки соединения или отмены ctx.
func (c *client) readPump(ctx context.Context, handle func(api.Frame)) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.kick()
		case <-done:
		}
	}()

	c.conn.SetReadLimit(c.opts.MaxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read frame: %w", err)
		}
		frame, err := api.DecodeFrame(data)
		if err != nil {
			c.logger.Warn("Dropping malformed frame", "error", err)
			continue
		}
		handle(frame)
	}
}

// writePump отправляет кадры из очереди и пинги до закрытия очереди.
func (c *client) writePump() {
	ticker := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.kick()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
