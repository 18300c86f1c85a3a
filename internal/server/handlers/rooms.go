package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/iudanet/editgrid/internal/validation"
	"github.com/iudanet/editgrid/pkg/api"
)

//go:generate moq -out rooms_mock.go . RoomService

// RoomService - комнаты ретранслятора
type RoomService interface {
	Info(ctx context.Context, roomID string) (api.RoomInfo, error)
	// Serve блокируется до закрытия соединения
	Serve(ctx context.Context, roomID string, conn *websocket.Conn) error
}

// RoomHandler обрабатывает запросы к комнатам
type RoomHandler struct {
	logger   *slog.Logger
	rooms    RoomService
	upgrader websocket.Upgrader
}

// NewRoomHandler создает новый handler комнат
func NewRoomHandler(logger *slog.Logger, rooms RoomService) *RoomHandler {
	return &RoomHandler{
		logger: logger,
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// клиент - терминальная программа, заголовок Origin она не шлет
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Info обрабатывает GET /api/v1/rooms/{id}
func (h *RoomHandler) Info(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["id"]

	if err := validation.ValidateRoomID(roomID); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	info, err := h.rooms.Info(ctx, roomID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get room info", slog.String("room_id", roomID), slog.Any("error", err))
		sendError(h.logger, w, "failed to get room info", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, info, http.StatusOK)
}

// Connect обрабатывает GET /api/v1/rooms/{id}/ws
// Переводит соединение на websocket и передает его комнате
func (h *RoomHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := mux.Vars(r)["id"]

	if err := validation.ValidateRoomID(roomID); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.WarnContext(ctx, "websocket upgrade failed", slog.Any("error", err))
		return
	}

	if err := h.rooms.Serve(ctx, roomID, conn); err != nil {
		h.logger.ErrorContext(ctx, "room connection failed", slog.String("room_id", roomID), slog.Any("error", err))
	}
}
