package shell_test

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/launchpad/internal/shell"
)

type instruction struct {
	Op      string `json:"op"`
	Payload string `json:"payload,omitempty"`
}

// readUntil drains messages until one with the wanted op arrives.
func readUntil(t *testing.T, conn *websocket.Conn, op string) instruction {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var ins instruction
		require.NoError(t, conn.ReadJSON(&ins))
		if ins.Op == op {
			return ins
		}
	}
}

func TestBridge(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	bridge := shell.NewBridge("127.0.0.1:0")
	require.NoError(t, bridge.Start(ctx))
	t.Cleanup(func() {
		_ = bridge.Close()
	})

	t.Run("serves the loading page", func(t *testing.T) {
		resp, err := http.Get(bridge.URL())
		require.NoError(t, err)
		defer func() {
			_ = resp.Body.Close()
		}()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), "Starting application")
	})

	t.Run("push without a shell", func(t *testing.T) {
		require.ErrorIs(t, bridge.UpdateStatus(ctx, "booting"), shell.ErrNoShell)
	})

	wsURL := "ws" + strings.TrimPrefix(bridge.URL(), "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	t.Run("status updates reach the shell", func(t *testing.T) {
		// the server may still be installing the connection right after Dial
		require.Eventually(t, func() bool {
			return bridge.UpdateStatus(ctx, "Waiting for backend...") == nil
		}, 5*time.Second, 10*time.Millisecond)

		ins := readUntil(t, conn, "status")
		require.Equal(t, "Waiting for backend...", ins.Payload)
	})

	t.Run("navigate instruction", func(t *testing.T) {
		require.NoError(t, bridge.NavigateTo(ctx, "http://127.0.0.1:3000"))
		ins := readUntil(t, conn, "navigate")
		require.Equal(t, "http://127.0.0.1:3000", ins.Payload)
	})

	t.Run("render instruction", func(t *testing.T) {
		require.NoError(t, bridge.RenderContent(ctx, shell.ErrorPage()))
		ins := readUntil(t, conn, "render")
		require.Contains(t, ins.Payload, "Try Again")
	})

	t.Run("close request fires exactly once", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(instruction{Op: "close"}))
		select {
		case <-bridge.CloseRequests():
		case <-time.After(5 * time.Second):
			t.Fatal("close request not delivered")
		}
		bridge.RequestClose() // idempotent
	})
}

func TestBridgeErrorPage(t *testing.T) {
	t.Parallel()
	page := shell.ErrorPage()
	require.Contains(t, page, "Services Not Available")
	require.Contains(t, page, "uvicorn")
	require.Contains(t, page, "npm start")
}
