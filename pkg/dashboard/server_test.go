package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rsdk/pkg/protocol"
)

// serve starts s on a random local port and returns its host:port.
func serve(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("dashboard did not shut down")
		}
	})
	return ln.Addr().String()
}

func TestStatusAPI(t *testing.T) {
	s := New(Options{})
	s.AddStatus("engine", func() any { return map[string]int{"ticks": 42} })

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 0, st.Controllers)
	assert.Equal(t, map[string]any{"ticks": float64(42)}, st.Sections["engine"])
}

func TestLabelsAPI(t *testing.T) {
	s := New(Options{})
	s.Emit("left: gripper close")
	s.Emit("right inc s0")

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/labels", nil))
	require.NoError(t, err)

	var entries []LabelEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "right inc s0", entries[1].Label)
}

func TestLabelsAPI_Bounded(t *testing.T) {
	s := New(Options{})
	for n := 0; n < maxRecentLabels+10; n++ {
		s.Emit("x")
	}
	s.recentMu.RLock()
	defer s.recentMu.RUnlock()
	assert.Len(t, s.recent, maxRecentLabels)
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(Options{})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "rsdk_dispatch_ticks_total"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s := New(Options{})

	resp, err := s.App().Test(httptest.NewRequest("GET", "/ws/labels", nil))
	require.NoError(t, err)
	assert.Equal(t, 426, resp.StatusCode)
}

func TestLabelStream(t *testing.T) {
	s := New(Options{})
	addr := serve(t, s)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/labels", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool { return s.labels.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	s.Emit("left: cycle joint")

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var ev protocol.LabelEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "left: cycle joint", ev.Label)
	assert.Equal(t, uint64(1), ev.Tick)

	ws.Close()
	assert.Eventually(t, func() bool { return s.labels.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestGamepadStream(t *testing.T) {
	s := New(Options{})

	var mu sync.Mutex
	var gotID string
	var got protocol.GamepadState
	s.OnGamepad(func(id string, st protocol.GamepadState) {
		mu.Lock()
		gotID, got = id, st
		mu.Unlock()
	})

	addr := serve(t, s)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws/gamepad/pad-1", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))

	data, err := protocol.Encode(protocol.TypeGamepad, protocol.GamepadState{
		Axes:    []float64{0.5, 0},
		Buttons: []bool{false, true},
	})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotID == "pad-1"
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []float64{0.5, 0}, got.Axes)
	assert.Equal(t, []bool{false, true}, got.Buttons)
	mu.Unlock()

	infos := s.Controllers()
	require.Len(t, infos, 1)
	assert.Equal(t, "pad-1", infos[0].ID)
	assert.Equal(t, uint64(2), infos[0].Messages)

	ws.Close()
	assert.Eventually(t, func() bool { return len(s.Controllers()) == 0 }, 2*time.Second, 5*time.Millisecond)
}
