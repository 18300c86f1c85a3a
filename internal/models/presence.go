package models

// SelectedCell указывает ячейку, на которой сейчас стоит фокус участника.
type SelectedCell struct {
	ColID    string `json:"colId"`
	RowIndex int    `json:"rowIndex"`
}

// UserState - эфемерная запись присутствия (awareness) одного участника.
// Никогда не попадает в документ таблицы.
type UserState struct {
	SelectedCell *SelectedCell `json:"selectedCell"`
	Name         string        `json:"name"`
	Color        string        `json:"color"`
}

// RemoteUser is a collaborator seen through the presence channel.
type RemoteUser struct {
	UserState
	ClientID string `json:"clientId"`
}
