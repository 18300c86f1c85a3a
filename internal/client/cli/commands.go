package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/editgrid/internal/client/api"
	"github.com/iudanet/editgrid/internal/client/iocli"
	"github.com/iudanet/editgrid/internal/client/relay"
	"github.com/iudanet/editgrid/internal/client/storage/boltdb"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultDBPath    = "editgrid-client.db"

	// EnvServerURL переопределяет адрес ретранслятора по умолчанию
	EnvServerURL = "EDITGRID_SERVER"
)

// Options - глобальные флаги клиента.
type Options struct {
	ServerURL string
	DBPath    string
	UserName  string
	Verbose   bool
}

// BuildInfo задается через ldflags при сборке.
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// NewRootCommand собирает дерево команд клиента.
func NewRootCommand(stdio iocli.IO, build BuildInfo) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   "editgrid",
		Short: "Collaborative table editor",
		Long: `editgrid edits CSV and XLSX tables in the terminal, locally or together
with others through a relay server.`,
		SilenceUsage: true,
	}

	serverURL := defaultServerURL
	if env := os.Getenv(EnvServerURL); env != "" {
		serverURL = env
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ServerURL, "server", serverURL, "Relay server URL (env "+EnvServerURL+")")
	flags.StringVar(&opts.DBPath, "db", defaultDBPath, "Path to local database")
	flags.StringVar(&opts.UserName, "name", "", "Display name shown to collaborators")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose logging to stderr")

	root.AddCommand(
		newImportCommand(stdio, opts),
		newEditCommand(stdio, opts),
		newRoomCommand(stdio, opts),
		newHealthCommand(stdio, opts),
		newVersionCommand(stdio, build),
	)
	return root
}

func newImportCommand(stdio iocli.IO, opts *Options) *cobra.Command {
	var noHeader bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Stage a CSV or XLSX file for the local document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCli(cmd.Context(), stdio, opts, func(c *Cli) error {
				return c.runImport(cmd.Context(), args[0], !noHeader)
			})
		},
	}
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "Treat the first row as data and name columns Column1..N")
	return cmd
}

func newEditCommand(stdio iocli.IO, opts *Options) *cobra.Command {
	var roomID string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the local document or join a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCli(cmd.Context(), stdio, opts, func(c *Cli) error {
				return c.runEdit(cmd.Context(), roomID)
			})
		},
	}
	cmd.Flags().StringVar(&roomID, "room", "", "Room id to join (default: local document)")
	return cmd
}

func newRoomCommand(stdio iocli.IO, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "room ID",
		Short: "Show room information from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := New(Deps{IO: stdio, API: api.NewClient(opts.ServerURL), Logger: newLogger(opts.Verbose)})
			return c.runRoom(cmd.Context(), args[0])
		},
	}
}

func newHealthCommand(stdio iocli.IO, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the relay server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := New(Deps{IO: stdio, API: api.NewClient(opts.ServerURL), Logger: newLogger(opts.Verbose)})
			return c.runHealth(cmd.Context())
		},
	}
}

func newVersionCommand(stdio iocli.IO, build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			stdio.Println("editgrid client")
			stdio.Printf("Version:    %s\n", build.Version)
			stdio.Printf("Build Date: %s\n", build.BuildDate)
			stdio.Printf("Git Commit: %s\n", build.GitCommit)
		},
	}
}

// withCli открывает локальное хранилище на время выполнения fn.
func withCli(ctx context.Context, stdio iocli.IO, opts *Options, fn func(c *Cli) error) error {
	logger := newLogger(opts.Verbose)

	store, err := boltdb.New(ctx, opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	c := New(Deps{
		IO:       stdio,
		Store:    store,
		API:      api.NewClient(opts.ServerURL),
		Factory:  relay.NewFactory(relay.Options{ServerURL: opts.ServerURL}, logger),
		Logger:   logger,
		UserName: opts.UserName,
	})
	return fn(c)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
