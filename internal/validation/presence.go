package validation

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/iudanet/editgrid/internal/models"
)

// userStateSchema повторяет структуру записи присутствия с указателями,
// чтобы отличать отсутствующее поле от пустого значения.
type userStateSchema struct {
	Name         *string         `json:"name"`
	Color        *string         `json:"color"`
	SelectedCell json.RawMessage `json:"selectedCell"`
}

type selectedCellSchema struct {
	RowIndex *float64 `json:"rowIndex"`
	ColID    *string  `json:"colId"`
}

// ValidateUserState разбирает запись присутствия другого участника.
// Обязательные поля: name, color (строки) и selectedCell (null или
// объект с числовым rowIndex и строковым colId).
func ValidateUserState(raw json.RawMessage) (models.UserState, error) {
	var s userStateSchema
	if err := json.Unmarshal(raw, &s); err != nil {
		return models.UserState{}, fmt.Errorf("user state is not an object: %w", err)
	}

	if s.Name == nil {
		return models.UserState{}, fmt.Errorf("user state: name is required")
	}
	if s.Color == nil {
		return models.UserState{}, fmt.Errorf("user state: color is required")
	}
	if s.SelectedCell == nil {
		return models.UserState{}, fmt.Errorf("user state: selectedCell is required")
	}

	state := models.UserState{Name: *s.Name, Color: *s.Color}
	if string(s.SelectedCell) == "null" {
		return state, nil
	}

	var cell selectedCellSchema
	if err := json.Unmarshal(s.SelectedCell, &cell); err != nil {
		return models.UserState{}, fmt.Errorf("user state: invalid selectedCell: %w", err)
	}
	if cell.RowIndex == nil || cell.ColID == nil {
		return models.UserState{}, fmt.Errorf("user state: selectedCell requires rowIndex and colId")
	}
	if *cell.RowIndex != math.Trunc(*cell.RowIndex) {
		return models.UserState{}, fmt.Errorf("user state: rowIndex must be an integer")
	}

	state.SelectedCell = &models.SelectedCell{RowIndex: int(*cell.RowIndex), ColID: *cell.ColID}
	return state, nil
}
