// Package cli реализует команды клиента editgrid: импорт файла, редактор
// таблицы в терминале и запрос информации о комнате.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/iudanet/editgrid/internal/client/api"
	"github.com/iudanet/editgrid/internal/client/iocli"
	"github.com/iudanet/editgrid/internal/client/session"
	"github.com/iudanet/editgrid/internal/client/storage"
	"github.com/iudanet/editgrid/internal/models"
	"github.com/iudanet/editgrid/internal/presence"
)

// Store - локальное хранилище клиента: черновик импорта, профиль участника
// и состояние локального документа.
type Store interface {
	storage.DraftStorage
	storage.ProfileStorage
	storage.DocumentStorage
}

// Deps - зависимости команд клиента.
type Deps struct {
	IO      iocli.IO
	Store   Store
	API     api.ClientAPI
	Factory session.Factory
	Logger  *slog.Logger
	// UserName заменяет сгенерированное имя участника
	UserName string
}

type Cli struct {
	io       iocli.IO
	store    Store
	api      api.ClientAPI
	factory  session.Factory
	logger   *slog.Logger
	userName string
}

func New(deps Deps) *Cli {
	return &Cli{
		io:       deps.IO,
		store:    deps.Store,
		api:      deps.API,
		factory:  deps.Factory,
		logger:   deps.Logger,
		userName: strings.TrimSpace(deps.UserName),
	}
}

// loadProfile возвращает сохраненную запись участника, при первом запуске
// генерирует и сохраняет новую. Ошибки хранилища не мешают работе.
func (c *Cli) loadProfile(ctx context.Context) models.UserState {
	var user models.UserState
	changed := false

	profile, err := c.store.GetProfile(ctx)
	switch {
	case err == nil:
		user = *profile
	case errors.Is(err, storage.ErrProfileNotFound):
		user = presence.NewLocalUser()
		changed = true
	default:
		c.logger.Warn("Failed to load profile", "error", err)
		user = presence.NewLocalUser()
	}

	if c.userName != "" && user.Name != c.userName {
		user.Name = c.userName
		changed = true
	}

	if changed {
		if err := c.store.SaveProfile(ctx, user); err != nil {
			c.logger.Warn("Failed to save profile", "error", err)
		}
	}
	return user
}

var templateFuncs = template.FuncMap{
	"initials": presence.Initials,
	"inc":      func(i int) int { return i + 1 },
}

// render выполняет шаблон вывода в c.io
func (c *Cli) render(name, text string, data any) error {
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	if err := tmpl.Execute(c.io, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}
