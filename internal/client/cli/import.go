package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/iudanet/editgrid/internal/client/storage"
	"github.com/iudanet/editgrid/internal/imports"
)

// runImport разбирает файл и откладывает результат как черновик: он будет
// применен к локальному документу при следующем запуске редактора.
func (c *Cli) runImport(ctx context.Context, path string, firstRowAsHeaders bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	if err := imports.ValidateFile(name, info.Size(), imports.DefaultLimits); err != nil {
		return err
	}

	result, err := imports.Import(path, imports.Options{FirstRowAsHeaders: firstRowAsHeaders})
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", name, err)
	}

	if err := c.store.SaveDraft(ctx, result); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	c.io.Println("✓ File imported successfully!")
	c.io.Printf("File:    %s (%s)\n", name, humanize.IBytes(uint64(info.Size())))
	c.io.Printf("Rows:    %d\n", len(result.Table.Rows))
	c.io.Printf("Columns: %d\n", len(result.Table.Headers))
	c.io.Println()
	c.io.Printf("Run 'editgrid edit' to open it. The draft is kept for %d hours.\n", int(storage.DraftTTL.Hours()))
	return nil
}
