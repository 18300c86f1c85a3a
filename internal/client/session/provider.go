package session

import (
	"github.com/iudanet/editgrid/internal/crdt"
	"github.com/iudanet/editgrid/internal/presence"
)

// TransportStatus - состояние соединения, о котором сообщает транспорт.
type TransportStatus string

const (
	TransportConnecting   TransportStatus = "connecting"
	TransportConnected    TransportStatus = "connected"
	TransportDisconnected TransportStatus = "disconnected"
)

//go:generate moq -out provider_mock.go . Provider

// Provider связывает документ с комнатой ретранслятора.
// Повторные подключения и задержки между ними - ответственность провайдера.
type Provider interface {
	// OnStatus подписывает на изменения состояния соединения
	OnStatus(fn func(TransportStatus)) func()

	// OnSync подписывает на завершение (true) или потерю (false) синхронизации
	OnSync(fn func(synced bool)) func()

	// Synced сообщает, завершена ли синхронизация с комнатой
	Synced() bool

	// Awareness возвращает канал присутствия соединения
	Awareness() *presence.Awareness

	// Close закрывает соединение и останавливает повторные подключения
	Close() error
}

// Factory создает провайдер для комнаты roomID и документа doc.
type Factory func(roomID string, doc *crdt.Document) (Provider, error)
