package shell

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrNoShell is returned by push methods while no shell is connected.
var ErrNoShell = errors.New("no shell connected")

const writeWait = 10 * time.Second

type instruction struct {
	Op      string `json:"op"`
	Payload string `json:"payload,omitempty"`
}

// Bridge is a Surface backed by a localhost HTTP server. It serves the
// embedded loading page and pushes instructions to the connected shell over
// a websocket. At most one shell is connected at a time; a newer connection
// replaces the previous one.
type Bridge struct {
	addr     string
	ln       net.Listener
	srv      *http.Server
	upgrader websocket.Upgrader

	mu   sync.Mutex
	conn *websocket.Conn

	closeOnce sync.Once
	closeCh   chan struct{}
}

func NewBridge(addr string) *Bridge {
	return &Bridge{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // localhost only
			},
		},
		closeCh: make(chan struct{}),
	}
}

// Start binds the listener and serves in the background. The returned error
// covers the bind only; serve errors are logged.
func (b *Bridge) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return err
	}
	b.ln = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/", b.handleIndex)
	mux.HandleFunc("/ws", b.handleShell)
	b.srv = &http.Server{Handler: mux}

	go func() {
		err := b.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "shell bridge failed", "error", err)
		}
	}()
	slog.InfoContext(ctx, "shell bridge listening", "url", b.URL())
	return nil
}

// URL is the address the shell window should open.
func (b *Bridge) URL() string {
	return "http://" + b.ln.Addr().String()
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
		b.conn = nil
	}
	b.mu.Unlock()
	if b.srv == nil {
		return nil
	}
	return b.srv.Close()
}

func (b *Bridge) UpdateStatus(ctx context.Context, line string) error {
	return b.push(ctx, instruction{Op: "status", Payload: line})
}

func (b *Bridge) RenderContent(ctx context.Context, html string) error {
	return b.push(ctx, instruction{Op: "render", Payload: html})
}

func (b *Bridge) NavigateTo(ctx context.Context, url string) error {
	return b.push(ctx, instruction{Op: "navigate", Payload: url})
}

func (b *Bridge) CloseRequests() <-chan struct{} {
	return b.closeCh
}

// RequestClose fires the close-request event. Safe to call more than once;
// only the first call has an effect.
func (b *Bridge) RequestClose() {
	b.closeOnce.Do(func() {
		close(b.closeCh)
	})
}

func (b *Bridge) push(ctx context.Context, ins instruction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return ErrNoShell
	}
	_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := b.conn.WriteJSON(ins); err != nil {
		slog.DebugContext(ctx, "shell push failed", "op", ins.Op, "error", err)
		_ = b.conn.Close()
		b.conn = nil
		return err
	}
	return nil
}

func (b *Bridge) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(loadingPage)
}

func (b *Bridge) handleShell(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("shell websocket upgrade failed", "error", err)
		return
	}

	b.mu.Lock()
	if b.conn != nil {
		_ = b.conn.Close()
	}
	b.conn = conn
	b.mu.Unlock()
	slog.Debug("shell connected", "remote", conn.RemoteAddr().String())

	// Reader loop: the only message the shell sends is the close request.
	for {
		var ins instruction
		if err := conn.ReadJSON(&ins); err != nil {
			break
		}
		if ins.Op == "close" {
			b.RequestClose()
		}
	}

	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
	_ = conn.Close()
}
