package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lox/oblech/internal/lobby"
	"github.com/lox/oblech/internal/randutil"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

type testEnv struct {
	server *Server
	http   *httptest.Server
	store  *lobby.Store
	clock  *quartz.Mock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := quartz.NewMock(t)
	bus := lobby.NewEventBus()
	store := lobby.NewStore(lobby.Config{}, clock, bus, randutil.New(42), testLogger())
	srv := NewServer("", store, bus, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Stop()
	})
	return &testEnv{server: srv, http: ts, store: store, clock: clock}
}

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func (e *testEnv) dial(t *testing.T) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{t: t, conn: conn}
}

// hello dials and introduces a named player.
func (e *testEnv) hello(t *testing.T, name string) *testClient {
	t.Helper()
	c := e.dial(t)
	c.send(MessageTypeHello, HelloData{Name: name})
	var w WelcomeData
	c.expect(MessageTypeWelcome, &w)
	require.Equal(t, name, w.Name)
	require.NotEmpty(t, w.PlayerID)
	c.id = w.PlayerID
	return c
}

func (c *testClient) send(mt MessageType, data any) {
	c.t.Helper()
	msg, err := NewMessage(mt, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(msg))
}

// expect reads until a message of type mt arrives and decodes its data into v.
func (c *testClient) expect(mt MessageType, v any) {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		var msg Message
		require.NoError(c.t, c.conn.ReadJSON(&msg), "waiting for %s", mt)
		if msg.Type != mt {
			continue
		}
		if v != nil {
			require.NoError(c.t, json.Unmarshal(msg.Data, v))
		}
		return
	}
}

// expectError reads until an error message arrives and returns its code.
func (c *testClient) expectError() string {
	c.t.Helper()
	var e ErrorData
	c.expect(MessageTypeError, &e)
	return e.Code
}
