package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
}

func TestCatalogChangedReachesClient(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	hub.CatalogChanged()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(msg), "catalog-changed") {
		t.Errorf("message = %s, want catalog-changed event", msg)
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	// Must not block or panic with nobody listening.
	hub.CatalogChanged()
	if n := hub.ClientCount(); n != 0 {
		t.Errorf("client count = %d, want 0", n)
	}
}

func TestClientDisconnectIsPruned(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}
