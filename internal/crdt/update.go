package crdt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/iudanet/editgrid/internal/models"
)

// ErrMalformedUpdate возвращается, если кадр обновления не удалось разобрать.
var ErrMalformedUpdate = errors.New("malformed update")

// Виды операций.
const (
	OpInsert = "insert"
	OpDelete = "delete"
	OpSet    = "set"
)

// Op - одна операция над документом в том виде, в каком она передается между репликами.
type Op struct {
	Origin   *models.OpID    `json:"origin,omitempty"`   // insert: левый сосед
	Replaces *models.OpID    `json:"replaces,omitempty"` // insert: заменяемая строка
	Target   *models.OpID    `json:"target,omitempty"`   // delete: удаляемая строка
	Row      models.Row      `json:"row,omitempty"`
	Kind     string          `json:"kind"`
	Key      string          `json:"key,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	ID       models.OpID     `json:"id"`
	Replace  bool            `json:"replace,omitempty"` // delete: часть замены строки
}

func (op Op) validate() error {
	if op.ID.Replica == "" || op.ID.Clock <= 0 {
		return fmt.Errorf("op %s: invalid id", op.ID)
	}
	switch op.Kind {
	case OpInsert:
		return nil
	case OpDelete:
		if op.Target == nil {
			return fmt.Errorf("op %s: delete without target", op.ID)
		}
	case OpSet:
		if op.Key == "" {
			return fmt.Errorf("op %s: set without key", op.ID)
		}
	default:
		return fmt.Errorf("op %s: unknown kind %q", op.ID, op.Kind)
	}
	return nil
}

// Update - кадр обновления: набор операций одной транзакции
// или разница состояний для шага синхронизации.
type Update struct {
	Ops []Op `json:"ops"`
}

// EncodeUpdate сериализует операции в кадр обновления.
func EncodeUpdate(ops []Op) ([]byte, error) {
	data, err := json.Marshal(Update{Ops: ops})
	if err != nil {
		return nil, fmt.Errorf("failed to encode update: %w", err)
	}
	return data, nil
}

// DecodeUpdate разбирает и проверяет кадр обновления.
func DecodeUpdate(data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}
	for _, op := range u.Ops {
		if err := op.validate(); err != nil {
			return Update{}, fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
		}
	}
	return u, nil
}

// sortOps упорядочивает операции по идентификатору. Порядок Лампорта
// согласован с причинностью, поэтому получатель может применять их подряд.
func sortOps(ops []Op) {
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].ID.Less(ops[j].ID)
	})
}
