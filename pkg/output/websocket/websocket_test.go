package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itohio/hktelem/pkg/config"
	"github.com/itohio/hktelem/pkg/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() frame.Record {
	return frame.Record{
		Timestamp: time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC),
		Frame: frame.Frame{
			Voltages:     [6]float64{5, 3.3, 0, 0, 0, 1},
			Temperatures: [4]float64{298.15, 0, 0, 0},
		},
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	a := dial(t, url)
	defer a.Close()
	b := dial(t, url)
	defer b.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	rec := testRecord()
	require.NoError(t, hub.Publish(rec))

	for _, c := range []*websocket.Conn{a, b} {
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got frame.Record
		require.NoError(t, c.ReadJSON(&got))
		assert.Equal(t, rec.Frame, got.Frame)
		assert.True(t, rec.Timestamp.Equal(got.Timestamp))
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, hub.Publish(testRecord()))
}

func TestNewWebSocket(t *testing.T) {
	out, err := NewWebSocket(config.WebSocketConfig{Addr: "127.0.0.1:0", Path: "/hk"})
	require.NoError(t, err)
	ws := out.(*WebSocketOutput)

	conn := dial(t, "ws://"+ws.Addr().String()+"/hk")
	defer conn.Close()
	require.Eventually(t, func() bool { return ws.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, out.Publish(testRecord()))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got frame.Record
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, testRecord().Frame, got.Frame)

	require.NoError(t, out.Close())
	assert.Equal(t, 0, ws.Clients())
}
