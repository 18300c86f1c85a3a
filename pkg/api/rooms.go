package api

import "time"

// HealthResponse представляет ответ health-check эндпоинта
type HealthResponse struct {
	Status  string `json:"status"`            // "ok", если сервер принимает подключения
	Version string `json:"version,omitempty"` // версия сборки сервера
	Rooms   int    `json:"rooms"`             // количество открытых комнат
}

// RoomInfo описывает комнату ретранслятора
type RoomInfo struct {
	UpdatedAt time.Time `json:"updated_at,omitzero"` // время последнего сохраненного снимка
	ID        string    `json:"id"`
	Exists    bool      `json:"exists"`  // есть сохраненный снимок или активные клиенты
	Clients   int       `json:"clients"` // количество подключенных клиентов
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
