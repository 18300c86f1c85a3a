// Package seed заполняет общую комнату playground демонстрационными данными.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/editgrid/internal/client/session"
	"github.com/iudanet/editgrid/internal/imports"
	"github.com/iudanet/editgrid/internal/models"
	"github.com/iudanet/editgrid/internal/table"
)

// DemoFilename - имя файла демонстрационной таблицы.
const DemoFilename = "customers.csv"

//go:embed customers.csv
var demoCSV []byte

// Source возвращает данные для заполнения.
type Source func(ctx context.Context) (models.ImportResult, error)

// DemoSource разбирает встроенную демонстрационную таблицу.
func DemoSource(ctx context.Context) (models.ImportResult, error) {
	raw, err := imports.ParseCSV(bytes.NewReader(demoCSV))
	if err != nil {
		return models.ImportResult{}, fmt.Errorf("failed to parse demo csv: %w", err)
	}
	return imports.Normalize(raw, DemoFilename, imports.Options{FirstRowAsHeaders: true})
}

// State - состояние одноразового заполнения.
type State int

const (
	NotStarted State = iota
	Seeding
	Seeded
)

// Seeder заполняет пустой документ один раз после подключения.
// Ошибка возвращает его в NotStarted, чтобы повторить при следующем
// переходе в connected.
type Seeder struct {
	doc    table.Document
	source Source
	logger *slog.Logger
	mu     sync.Mutex
	state  State
}

// NewSeeder создает заполнитель документа doc.
func NewSeeder(doc table.Document, source Source, logger *slog.Logger) *Seeder {
	return &Seeder{doc: doc, source: source, logger: logger}
}

// State returns the current state.
func (s *Seeder) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandleStatus запускает заполнение, если коннектор подключен, документ пуст
// и заполнение еще не выполнялось. Возвращает true, если данные записаны.
func (s *Seeder) HandleStatus(ctx context.Context, status session.ConnectionStatus) bool {
	if status != session.StatusConnected {
		return false
	}

	s.mu.Lock()
	if s.state != NotStarted || len(s.doc.Read().Rows) > 0 {
		s.mu.Unlock()
		return false
	}
	s.state = Seeding
	s.mu.Unlock()

	seeded, err := s.seed(ctx)

	s.mu.Lock()
	if err != nil {
		s.state = NotStarted
	} else {
		s.state = Seeded
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("Playground seeding failed, will retry", "error", err)
	}
	return seeded
}

func (s *Seeder) seed(ctx context.Context) (bool, error) {
	result, err := s.source(ctx)
	if err != nil {
		return false, err
	}

	// пока данные загружались, документ мог заполнить другой участник
	if len(s.doc.Read().Rows) > 0 {
		s.logger.Debug("Playground already populated by a peer")
		return false, nil
	}

	table.Populate(s.doc, result, table.OriginSeed)
	s.logger.Info("Playground seeded", "rows", len(result.Table.Rows))
	return true, nil
}

// Reset перезаписывает документ свежими демонстрационными данными.
func (s *Seeder) Reset(ctx context.Context) error {
	result, err := s.source(ctx)
	if err != nil {
		return fmt.Errorf("failed to load playground data: %w", err)
	}
	table.Populate(s.doc, result, table.OriginSeed)

	s.mu.Lock()
	s.state = Seeded
	s.mu.Unlock()
	return nil
}
