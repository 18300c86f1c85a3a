package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iudanet/editgrid/internal/server/middleware"
)

// HealthPath - путь health check; не логируется
const HealthPath = "/api/v1/health"

// RouterConfig - зависимости HTTP API
type RouterConfig struct {
	Logger *slog.Logger
	Health *HealthHandler
	Rooms  *RoomHandler
	// Limiter ограничивает REST-запросы; nil отключает ограничение
	Limiter *middleware.RateLimiter
}

// NewRouter собирает маршруты API и middleware
func NewRouter(cfg RouterConfig) http.Handler {
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(cfg.Logger, w, "method not allowed", http.StatusMethodNotAllowed)
	})

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendError(cfg.Logger, w, "route not found", http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = notAllowed

	// подроутеры не наследуют обработчики ошибок маршрутизации
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.MethodNotAllowedHandler = notAllowed
	v1.HandleFunc("/health", cfg.Health.Health).Methods(http.MethodGet)

	// websocket живет долго и не учитывается лимитом запросов
	v1.HandleFunc("/rooms/{id}/ws", cfg.Rooms.Connect).Methods(http.MethodGet)

	rest := v1.PathPrefix("/rooms").Subrouter()
	rest.MethodNotAllowedHandler = notAllowed
	if cfg.Limiter != nil {
		rest.Use(cfg.Limiter.Middleware)
	}
	rest.HandleFunc("/{id}", cfg.Rooms.Info).Methods(http.MethodGet)

	router.Use(
		middleware.RecoveryMiddleware(cfg.Logger),
		middleware.LoggingWithSkip(cfg.Logger, []string{HealthPath}),
	)
	return router
}
