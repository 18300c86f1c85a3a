package validation

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// PlaygroundRoom - зарезервированная общая комната с демонстрационными данными.
const PlaygroundRoom = "playground"

// ReservedRooms перечисляет идентификаторы общих пространств, которые не
// являются UUID и всегда считаются существующими.
var ReservedRooms = []string{PlaygroundRoom}

// IsReservedRoom reports whether id is one of the fixed shared spaces.
func IsReservedRoom(id string) bool {
	return slices.Contains(ReservedRooms, id)
}

// ValidateRoomID проверяет идентификатор комнаты.
// Формат: каноническая строка UUID (36 символов) или зарезервированный идентификатор.
func ValidateRoomID(id string) error {
	if id == "" {
		return fmt.Errorf("room id cannot be empty")
	}

	if IsReservedRoom(id) {
		return nil
	}

	// uuid.Parse принимает также формы с urn:uuid: и фигурными скобками
	if len(id) != 36 {
		return fmt.Errorf("room id must be a UUID")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("room id must be a UUID: %w", err)
	}

	return nil
}
