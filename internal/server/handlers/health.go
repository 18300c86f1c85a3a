package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/editgrid/pkg/api"
)

// RoomCounter сообщает количество открытых комнат
type RoomCounter interface {
	RoomCount() int
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	rooms   RoomCounter
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, version string, rooms RoomCounter) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		rooms:   rooms,
		version: version,
	}
}

// Health обрабатывает GET /api/v1/health
// Health check endpoint для мониторинга
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
		Rooms:   h.rooms.RoomCount(),
	}
	sendJSON(h.logger, w, resp, http.StatusOK)
}
