package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/editgrid/internal/client/api"
	pkgapi "github.com/iudanet/editgrid/pkg/api"
)

const testRoom = "3f1c2a9e-8d4b-4c6e-9a7f-1b2c3d4e5f60"

func TestCli_runRoom(t *testing.T) {
	saved := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name     string
		info     *pkgapi.RoomInfo
		contains []string
		excludes []string
	}{
		{
			name:     "saved room",
			info:     &pkgapi.RoomInfo{ID: testRoom, Exists: true, Clients: 2, UpdatedAt: saved},
			contains: []string{"=== Room " + testRoom + " ===", "Status:       available", "Clients:      2", "Last saved:   2026-03-14 09:26:53 UTC"},
		},
		{
			name:     "live room without snapshot",
			info:     &pkgapi.RoomInfo{ID: testRoom, Exists: true, Clients: 1},
			contains: []string{"Status:       available", "Last saved:   never"},
		},
		{
			name:     "missing room",
			info:     &pkgapi.RoomInfo{ID: testRoom},
			contains: []string{"Status:       not found"},
			excludes: []string{"Clients:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := &api.ClientAPIMock{
				RoomInfoFunc: func(ctx context.Context, roomID string) (*pkgapi.RoomInfo, error) {
					return tt.info, nil
				},
			}
			tio := newTestIO()
			c := New(Deps{IO: tio, API: mockAPI, Logger: discardLogger()})

			require.NoError(t, c.runRoom(context.Background(), testRoom))

			require.Len(t, mockAPI.RoomInfoCalls(), 1)
			assert.Equal(t, testRoom, mockAPI.RoomInfoCalls()[0].RoomID)
			out := tio.output()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestCli_runRoom_Errors(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		RoomInfoFunc: func(ctx context.Context, roomID string) (*pkgapi.RoomInfo, error) {
			return nil, errors.New("connection refused")
		},
	}
	c := New(Deps{IO: newTestIO(), API: mockAPI, Logger: discardLogger()})

	err := c.runRoom(context.Background(), "not-a-room")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid room id")
	assert.Empty(t, mockAPI.RoomInfoCalls())

	err = c.runRoom(context.Background(), testRoom)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCli_runHealth(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		HealthFunc: func(ctx context.Context) (*pkgapi.HealthResponse, error) {
			return &pkgapi.HealthResponse{Status: "ok", Version: "1.2.0", Rooms: 3}, nil
		},
	}
	tio := newTestIO()
	c := New(Deps{IO: tio, API: mockAPI, Logger: discardLogger()})

	require.NoError(t, c.runHealth(context.Background()))
	out := tio.output()
	assert.Contains(t, out, "Server:  ok")
	assert.Contains(t, out, "Version: 1.2.0")
	assert.Contains(t, out, "Rooms:   3 open")

	mockAPI.HealthFunc = func(ctx context.Context) (*pkgapi.HealthResponse, error) {
		return nil, errors.New("timeout")
	}
	assert.ErrorContains(t, c.runHealth(context.Background()), "server is unreachable")
}
