package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/editgrid/internal/validation"
)

// runRoom запрашивает у ретранслятора сведения о комнате.
func (c *Cli) runRoom(ctx context.Context, roomID string) error {
	if err := validation.ValidateRoomID(roomID); err != nil {
		return fmt.Errorf("invalid room id: %w", err)
	}

	info, err := c.api.RoomInfo(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to get room info: %w", err)
	}

	return c.render("room", roomInfoTemplate, info)
}

// runHealth проверяет доступность ретранслятора.
func (c *Cli) runHealth(ctx context.Context) error {
	health, err := c.api.Health(ctx)
	if err != nil {
		return fmt.Errorf("server is unreachable: %w", err)
	}

	c.io.Printf("Server:  %s\n", health.Status)
	if health.Version != "" {
		c.io.Printf("Version: %s\n", health.Version)
	}
	c.io.Printf("Rooms:   %d open\n", health.Rooms)
	return nil
}
