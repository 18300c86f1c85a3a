package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/editgrid/pkg/api"
)

const testRoom = "3f1c2a9e-8d4b-4c6e-9a7f-1b2c3d4e5f60"

// withVars подставляет переменные маршрута, как это делает mux.
func withVars(req *http.Request, id string) *http.Request {
	return mux.SetURLVars(req, map[string]string{"id": id})
}

func TestRoomHandler_Info(t *testing.T) {
	saved := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		infoErr    error
		name       string
		roomID     string
		info       api.RoomInfo
		wantStatus int
		wantCalls  int
	}{
		{
			name:       "existing room",
			roomID:     testRoom,
			info:       api.RoomInfo{ID: testRoom, Exists: true, Clients: 2, UpdatedAt: saved},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "reserved room",
			roomID:     "playground",
			info:       api.RoomInfo{ID: "playground"},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "invalid id",
			roomID:     "not-a-room",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "storage failure",
			roomID:     testRoom,
			infoErr:    errors.New("database is closed"),
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms := &RoomServiceMock{
				InfoFunc: func(ctx context.Context, roomID string) (api.RoomInfo, error) {
					return tt.info, tt.infoErr
				},
			}
			handler := NewRoomHandler(setupTestLogger(), rooms)

			req := withVars(httptest.NewRequest(http.MethodGet, "/api/v1/rooms/"+tt.roomID, nil), tt.roomID)
			w := httptest.NewRecorder()
			handler.Info(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			require.Len(t, rooms.InfoCalls(), tt.wantCalls)

			if tt.wantStatus == http.StatusOK {
				var got api.RoomInfo
				require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
				assert.Equal(t, tt.info.ID, got.ID)
				assert.Equal(t, tt.info.Exists, got.Exists)
				assert.Equal(t, tt.info.Clients, got.Clients)
				assert.True(t, tt.info.UpdatedAt.Equal(got.UpdatedAt))
				return
			}

			var errResp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestRoomHandler_Connect(t *testing.T) {
	served := make(chan string, 1)
	rooms := &RoomServiceMock{
		ServeFunc: func(ctx context.Context, roomID string, conn *websocket.Conn) error {
			defer conn.Close()
			served <- roomID
			return conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"sync_step1"}`))
		},
	}
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/rooms/{id}/ws", NewRoomHandler(setupTestLogger(), rooms).Connect)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/rooms/" + testRoom + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sync_step1"}`, string(data))
	assert.Equal(t, testRoom, <-served)
}

func TestRoomHandler_ConnectInvalidRoom(t *testing.T) {
	rooms := &RoomServiceMock{}
	handler := NewRoomHandler(setupTestLogger(), rooms)

	req := withVars(httptest.NewRequest(http.MethodGet, "/api/v1/rooms/bad/ws", nil), "bad")
	w := httptest.NewRecorder()
	handler.Connect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rooms.ServeCalls())
}

func TestRoomHandler_ConnectWithoutUpgrade(t *testing.T) {
	rooms := &RoomServiceMock{}
	handler := NewRoomHandler(setupTestLogger(), rooms)

	req := withVars(httptest.NewRequest(http.MethodGet, "/api/v1/rooms/"+testRoom+"/ws", nil), testRoom)
	w := httptest.NewRecorder()
	handler.Connect(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, rooms.ServeCalls())
}
