package http_server

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawcollab/internal/enhance"
	"drawcollab/internal/http/enhancehandler"
	"drawcollab/internal/registry"
	"drawcollab/internal/room"
	"drawcollab/internal/ws"
)

func freePort(t *testing.T) uint16 {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return uint16(port)
}

func startTestServer(t *testing.T, ctx context.Context) (*httpServer, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	svc, err := enhance.NewService(filepath.Join(dir, "img"), filepath.Join(dir, "enhanced"), "", "")
	require.NoError(t, err)

	rooms := room.NewStore()
	srv := NewHttpServer(ctx, "127.0.0.1", freePort(t),
		ws.NewServer(registry.New(), rooms), rooms, enhancehandler.New(svc), dir, dir)
	go func() { _ = srv.Start() }()

	addr := fmt.Sprintf("127.0.0.1:%d", srv.listenPort)
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			require.NoError(t, conn.Close())
			return srv, addr
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up on %s: %v", addr, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Dispose runs after the shutdown signal has already canceled the process
// context, as in main. In-flight requests still get their grace period.
func TestDisposeWaitsForInFlightRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv, addr := startTestServer(t, ctx)

	body := `{"imageData":"data:image/png;base64,` +
		base64.StdEncoding.EncodeToString([]byte("png bytes")) + `"}`
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// Headers plus half the body: the handler is now blocked reading the rest.
	_, err = fmt.Fprintf(conn,
		"POST /api/save-image HTTP/1.1\r\nHost: %s\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n%s",
		addr, len(body), body[:len(body)/2])
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Dispose() }()

	select {
	case err := <-done:
		t.Fatalf("Dispose returned before the in-flight request finished: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	// Finish the request; shutdown should now complete cleanly.
	_, err = fmt.Fprint(conn, body[len(body)/2:])
	require.NoError(t, err)
	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Dispose never returned")
	}
}
