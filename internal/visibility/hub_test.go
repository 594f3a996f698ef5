package visibility

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siteSvc "sitecanvas/internal/domain/services/site"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsToEveryClient(t *testing.T) {
	hub := NewHub(nil, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dial(t, srv, nil)
	second := dial(t, srv, nil)
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)

	published := siteSvc.PublishEvent{SectionID: "s1", Slug: "hero", VersionID: "v2", Reason: "publish"}
	hub.PublishedChanged(context.Background(), published)

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, EventPublished, got.Type)
		assert.Equal(t, published, got.PublishEvent)
		assert.False(t, got.At.IsZero())
	}
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub := NewHub(nil, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, nil)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowClients(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendBuffer = 1
	hub := NewHub(cfg, testLogger())

	c, ok := hub.register()
	require.True(t, ok)

	event := siteSvc.PublishEvent{SectionID: "s1"}
	hub.PublishedChanged(context.Background(), event)
	assert.Equal(t, 1, hub.Clients())
	hub.PublishedChanged(context.Background(), event)
	assert.Equal(t, 0, hub.Clients())

	queued, open := <-c.send
	assert.True(t, open)
	assert.Equal(t, "s1", queued.SectionID)
	_, open = <-c.send
	assert.False(t, open, "queue is closed once the client is dropped")

	hub.unregister(c.id)
}

func TestHubCloseRefusesNewClients(t *testing.T) {
	hub := NewHub(nil, testLogger())
	_, ok := hub.register()
	require.True(t, ok)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())
	_, ok = hub.register()
	assert.False(t, ok)
}

func TestHubCheckOrigin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"http://localhost:3000"}
	hub := NewHub(cfg, testLogger())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	dial(t, srv, http.Header{"Origin": {"http://localhost:3000"}})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

type countingWriter struct {
	writes atomic.Int32
	failAt int32
}

func (w *countingWriter) WriteKeepAlive() error {
	if n := w.writes.Add(1); w.failAt > 0 && n >= w.failAt {
		return io.ErrClosedPipe
	}
	return nil
}

func TestTickerKeepAlive(t *testing.T) {
	t.Run("stops on write failure", func(t *testing.T) {
		w := &countingWriter{failAt: 3}
		k := NewTickerKeepAlive(5 * time.Millisecond)
		stopped := k.Start(w, testLogger())

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("keep-alive did not stop after a failed write")
		}
		assert.Equal(t, int32(3), w.writes.Load())
		k.Stop()
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		w := &countingWriter{}
		k := NewTickerKeepAlive(time.Hour)
		stopped := k.Start(w, testLogger())
		k.Stop()
		k.Stop()
		<-stopped
		assert.Zero(t, w.writes.Load())
	})
}
