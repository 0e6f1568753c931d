package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heist/pkg/game/config"
	"heist/pkg/protocol"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(config.Default(), zap.NewNop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Hub().Close()
	})
	return s, ts
}

func postJSON(t *testing.T, url string, body any) (int, protocol.RoomResponse) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out protocol.RoomResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestHTTP_CreateAndJoin(t *testing.T) {
	s, ts := newTestServer(t)

	status, created := postJSON(t, ts.URL+"/api/rooms/create", protocol.CreateRoom{HostName: "Ana"})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, created.RoomCode, CodeLength)
	assert.NotEmpty(t, created.PlayerID)

	status, joined := postJSON(t, ts.URL+"/api/rooms/join", protocol.JoinRoom{RoomCode: created.RoomCode, PlayerName: "Bo"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.RoomCode, joined.RoomCode)
	assert.NotEqual(t, created.PlayerID, joined.PlayerID)

	status, missing := postJSON(t, ts.URL+"/api/rooms/join", protocol.JoinRoom{RoomCode: "ZZZZ", PlayerName: "Cy"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Room not found", missing.Error)

	room, err := s.Hub().Room(created.RoomCode)
	require.NoError(t, err)
	require.NoError(t, room.SelectRole(created.PlayerID, "Hacker"))
	require.NoError(t, room.SelectRole(joined.PlayerID, "Lookout"))
	require.NoError(t, room.Start(created.PlayerID))
	status, late := postJSON(t, ts.URL+"/api/rooms/join", protocol.JoinRoom{RoomCode: created.RoomCode, PlayerName: "Cy"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Game already in progress", late.Error)
}

func TestHTTP_BadBodyAndHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/rooms/create", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func readEnvelope(t *testing.T, conn *websocket.Conn, typ string) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var env protocol.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == typ {
			return env
		}
	}
}

func TestWebsocket_RoundTrip(t *testing.T) {
	s, ts := newTestServer(t)
	room, host := s.Hub().CreateRoom("Ana")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?room=" + room.Code + "&player=" + host.ID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	var state protocol.GameState
	require.NoError(t, readEnvelope(t, conn, protocol.TypeGameState).Decode(&state))
	assert.Equal(t, room.Code, state.Room)
	assert.Equal(t, string(StatusWaiting), state.Status)
	assert.True(t, state.Players[host.ID].IsHost)

	frame, err := protocol.Encode(protocol.TypeSelectRole, protocol.SelectRole{Role: "Safe Cracker"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	var confirmed protocol.RoleConfirmed
	require.NoError(t, readEnvelope(t, conn, protocol.TypeRoleConfirmed).Decode(&confirmed))
	assert.Equal(t, "Safe Cracker", confirmed.Role)

	// Refusals come back as error frames on the same socket.
	frame, err = protocol.Encode(protocol.TypeStartGame, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
	var refusal protocol.Error
	require.NoError(t, readEnvelope(t, conn, protocol.TypeError).Decode(&refusal))
	assert.Equal(t, protocol.TypeStartGame, refusal.Context)
}

func TestWebsocket_UnknownRoom(t *testing.T) {
	_, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?room=ZZZZ&player=x"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
