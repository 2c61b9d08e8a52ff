package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestSocket(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer server.Close()
		for {
			if _, _, err := server.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestKeepAliveStopsWhenHandlerExits(t *testing.T) {
	conn := dialTestSocket(t)

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		keepAlive(conn, done, 1)
		close(stopped)
	}()

	close(done)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("keepAlive must return once the connection handler signals done")
	}
}
