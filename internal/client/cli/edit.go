package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iudanet/editgrid/internal/client/registry"
	"github.com/iudanet/editgrid/internal/client/room"
	"github.com/iudanet/editgrid/internal/client/session"
	"github.com/iudanet/editgrid/internal/exports"
	"github.com/iudanet/editgrid/internal/models"
)

const prompt = "> "

var errUsage = errors.New("wrong arguments")

// runEdit открывает документ (локальный при пустом roomID) и читает команды
// до quit или конца ввода. Локальный документ сохраняется при выходе.
func (c *Cli) runEdit(ctx context.Context, roomID string) error {
	user := c.loadProfile(ctx)

	r := room.Open(ctx, roomID, room.Deps{
		Registry:  registry.New(c.logger),
		Connector: session.NewConnector(c.factory, user, c.logger),
		Drafts:    c.store,
		Documents: c.store,
		Logger:    c.logger,
	})
	defer func() {
		if err := r.Close(context.WithoutCancel(ctx)); err != nil {
			c.logger.Error("Failed to close document", "error", err)
		}
	}()

	if state := r.State(); state.Error != nil && state.Error.Type == session.ErrInvalidRoomID {
		return state.Error
	}

	if roomID == "" {
		select {
		case <-r.DraftResolved():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.io.Printf("Editing as %s. Type 'help' for commands.\n", user.Name)
	c.show(r)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	next := c.lines(ctx)

	for {
		line, err := next()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case ctx.Err() != nil:
				c.io.Println()
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}

		quit, err := c.execute(ctx, r, line)
		if err != nil {
			c.io.Printf("Error: %v\n", err)
		}
		if quit || ctx.Err() != nil {
			return nil
		}
	}
}

type input struct {
	err  error
	line string
}

// lines читает ввод в отдельной горутине, отмена ctx прерывает ожидание
// команды. Следующая строка читается только по запросу.
func (c *Cli) lines(ctx context.Context) func() (string, error) {
	requests := make(chan struct{})
	results := make(chan input)

	go func() {
		for {
			select {
			case <-requests:
			case <-ctx.Done():
				return
			}
			line, err := c.io.ReadInput(prompt)
			select {
			case results <- input{line: line, err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() (string, error) {
		select {
		case requests <- struct{}{}:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		select {
		case in := <-results:
			return in.line, in.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// execute выполняет одну команду редактора. Возвращает true для quit.
func (c *Cli) execute(ctx context.Context, r *room.Room, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		return false, c.render("help", replHelpTemplate, nil)
	case "show":
		c.show(r)
		return false, nil
	case "status":
		return false, c.render("status", statusTemplate, struct {
			State     room.State
			SessionID string
		}{State: r.State(), SessionID: r.SessionID()})
	case "users":
		return false, c.render("users", usersTemplate, r.State().Collaboration)
	case "share":
		return false, c.share(ctx, r)
	case "select":
		return false, c.selectCell(r, args)
	case "export":
		return false, c.export(r, args)
	case "reset":
		if err := r.ResetPlayground(ctx); err != nil {
			return false, err
		}
		c.show(r)
		return false, nil
	}

	if err := c.mutate(r, cmd, args); err != nil {
		return false, err
	}
	c.show(r)
	return false, nil
}

// mutate выполняет команды, меняющие документ.
func (c *Cli) mutate(r *room.Room, cmd string, args []string) error {
	snap := r.Document().Read()
	m := r.Mutations()

	switch cmd {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("%w: set ROW COL VALUE", errUsage)
		}
		row, err := parseRow(args[0], len(snap.Rows))
		if err != nil {
			return err
		}
		col, err := resolveColumn(snap.Headers, args[1])
		if err != nil {
			return err
		}
		m.UpdateCell(row, col, strings.Join(args[2:], " "))
		// представление пропускает эхо правки ячейки, а в терминале нет
		// поля ввода с новым значением: перечитываем документ сами
		r.View().Refresh()

	case "addrow":
		at := len(snap.Rows)
		if len(args) > 0 {
			// допускаем позицию сразу за последней строкой
			row, err := parseRow(args[0], len(snap.Rows)+1)
			if err != nil {
				return err
			}
			at = row
		}
		m.Rows.Add(at)

	case "rmrow", "duprow":
		if len(args) != 1 {
			return fmt.Errorf("%w: %s ROW", errUsage, cmd)
		}
		row, err := parseRow(args[0], len(snap.Rows))
		if err != nil {
			return err
		}
		if cmd == "rmrow" {
			m.Rows.Remove(row)
		} else {
			m.Rows.Duplicate(row)
		}

	case "addcol":
		after := ""
		if len(args) > 0 {
			col, err := resolveColumn(snap.Headers, args[0])
			if err != nil {
				return err
			}
			after = col
		}
		name := m.Columns.Add(after)
		c.io.Printf("✓ Column %s added\n", name)

	case "rmcol":
		if len(args) != 1 {
			return fmt.Errorf("%w: rmcol COL", errUsage)
		}
		col, err := resolveColumn(snap.Headers, args[0])
		if err != nil {
			return err
		}
		m.Columns.Remove(col)

	default:
		return fmt.Errorf("unknown command %q, type 'help' for the list", cmd)
	}
	return nil
}

func (c *Cli) share(ctx context.Context, r *room.Room) error {
	roomID, err := r.Share(ctx)
	if err != nil {
		return err
	}
	c.io.Println("✓ Document shared!")
	c.io.Printf("Room: %s\n", roomID)
	c.io.Printf("Others can join with: editgrid edit --room %s\n", roomID)
	return nil
}

// export сохраняет текущую таблицу в файл. Без явного режима строка
// заголовков пишется, если таблица импортирована с заголовками.
func (c *Cli) export(r *room.Room, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: export FILE [headers|noheaders]", errUsage)
	}

	snap := r.Document().Read()
	opts := exports.DefaultOptions(snap)
	if len(args) == 2 {
		switch strings.ToLower(args[1]) {
		case "headers":
			opts.IncludeHeaders = true
		case "noheaders":
			opts.IncludeHeaders = false
		default:
			return fmt.Errorf("%w: export FILE [headers|noheaders]", errUsage)
		}
	}

	if err := exports.ExportFile(args[0], snap, opts); err != nil {
		return err
	}
	c.io.Printf("✓ Exported %d row(s) to %s\n", len(snap.Rows), args[0])
	return nil
}

func (c *Cli) selectCell(r *room.Room, args []string) error {
	if len(args) == 1 && args[0] == "-" {
		r.SetSelectedCell(nil)
		return nil
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: select ROW COL", errUsage)
	}

	snap := r.Document().Read()
	row, err := parseRow(args[0], len(snap.Rows))
	if err != nil {
		return err
	}
	col, err := resolveColumn(snap.Headers, args[1])
	if err != nil {
		return err
	}
	r.SetSelectedCell(&models.SelectedCell{RowIndex: row, ColID: col})
	return nil
}

// show печатает таблицу или состояние окна, если таблица недоступна.
func (c *Cli) show(r *room.Room) {
	state := r.State()

	switch state.Status {
	case room.StatusError:
		c.io.Printf("Error: %s\n", state.Error.Message)
	case room.StatusLoading:
		c.io.Println("Loading document...")
	case room.StatusEmpty:
		c.io.Println("The document is empty.")
		c.io.Println("Run 'editgrid import FILE' to load a CSV or XLSX file, or 'addcol' to start from scratch.")
	case room.StatusReady:
		if err := renderTable(c.io, state.Snapshot, c.io.Width()); err != nil {
			c.logger.Warn("Failed to render table", "error", err)
		}
		if state.IsReconnecting {
			c.io.Println("⚠️  Reconnecting... edits are kept locally.")
		}
	}
}

// parseRow переводит номер строки с единицы в индекс.
func parseRow(arg string, count int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > count {
		if count == 0 {
			return 0, fmt.Errorf("row %s: the table has no rows", arg)
		}
		return 0, fmt.Errorf("row %s is out of range 1-%d", arg, count)
	}
	return n - 1, nil
}

// resolveColumn находит колонку по имени (без учета регистра) или по номеру с единицы.
func resolveColumn(headers []string, arg string) (string, error) {
	for _, h := range headers {
		if h == arg {
			return h, nil
		}
	}
	for _, h := range headers {
		if strings.EqualFold(h, arg) {
			return h, nil
		}
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(headers) {
		return headers[n-1], nil
	}
	return "", fmt.Errorf("unknown column %q", arg)
}
