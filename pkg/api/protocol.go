package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/editgrid/internal/models"
)

// Типы кадров протокола синхронизации комнаты.
const (
	// FrameSyncStep1 несет вектор состояния отправителя; получатель отвечает
	// кадром FrameSyncStep2 с недостающими операциями.
	FrameSyncStep1 = "sync_step1"
	// FrameSyncStep2 несет недостающие получателю операции.
	FrameSyncStep2 = "sync_step2"
	// FrameUpdate несет операции одной транзакции.
	FrameUpdate = "update"
	// FrameAwareness несет обновление эфемерного присутствия.
	FrameAwareness = "awareness"
)

// ErrUnknownFrame возвращается для кадра неизвестного типа.
var ErrUnknownFrame = errors.New("unknown frame type")

// Frame - одно сообщение websocket-соединения с комнатой.
// Payload непрозрачен для транспорта: это закодированное обновление документа
// или присутствия.
type Frame struct {
	StateVector models.StateVector `json:"state_vector,omitempty"`
	Type        string             `json:"type"`
	Payload     []byte             `json:"payload,omitempty"`
}

// EncodeFrame сериализует кадр.
func EncodeFrame(f Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", f.Type, err)
	}
	return data, nil
}

// DecodeFrame разбирает кадр и проверяет его тип.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame: %w", err)
	}
	switch f.Type {
	case FrameSyncStep1, FrameSyncStep2, FrameUpdate, FrameAwareness:
		return f, nil
	default:
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownFrame, f.Type)
	}
}
