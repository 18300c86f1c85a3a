package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Bus пересылает кадры комнат между экземплярами ретранслятора.
// Подписчик не получает собственные публикации.
type Bus interface {
	Publish(ctx context.Context, roomID string, frame []byte) error
	// Subscribe вызывает fn для каждого кадра комнаты от других экземпляров.
	// Возвращает функцию отписки.
	Subscribe(ctx context.Context, roomID string, fn func(frame []byte)) (func(), error)
}

const channelPrefix = "editgrid:room:"

// envelope - сообщение в канале redis.
type envelope struct {
	Instance string `json:"instance"`
	Frame    []byte `json:"frame"`
}

// RedisBus реализует Bus на pub/sub redis: один канал на комнату.
type RedisBus struct {
	client   *redis.Client
	logger   *slog.Logger
	instance string
}

var _ Bus = (*RedisBus)(nil)

// NewRedisBus подключается к redis по redisURL.
func NewRedisBus(ctx context.Context, redisURL string, logger *slog.Logger) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisBusWithClient(client, logger), nil
}

// NewRedisBusWithClient оборачивает готовый клиент, например в тестах.
func NewRedisBusWithClient(client *redis.Client, logger *slog.Logger) *RedisBus {
	return &RedisBus{
		client:   client,
		logger:   logger,
		instance: uuid.NewString(),
	}
}

// Publish отправляет кадр комнаты остальным экземплярам.
func (b *RedisBus) Publish(ctx context.Context, roomID string, frame []byte) error {
	data, err := json.Marshal(envelope{Instance: b.instance, Frame: frame})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, channelPrefix+roomID, data).Err(); err != nil {
		return fmt.Errorf("publish to room %s: %w", roomID, err)
	}
	return nil
}

// Subscribe подписывается на канал комнаты и дожидается подтверждения подписки.
func (b *RedisBus) Subscribe(ctx context.Context, roomID string, fn func(frame []byte)) (func(), error) {
	pubsub := b.client.Subscribe(ctx, channelPrefix+roomID)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe to room %s: %w", roomID, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range pubsub.Channel() {
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("Dropping malformed bus message", "room_id", roomID, "error", err)
				continue
			}
			if env.Instance == b.instance {
				continue
			}
			fn(env.Frame)
		}
	}()

	return func() {
		_ = pubsub.Close()
		<-done
	}, nil
}

// Close закрывает соединение с redis.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
