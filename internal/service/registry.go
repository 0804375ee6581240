package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pharmadesk/launchpad/internal/model"
)

// Registry holds at most one Handle per role. It is the only state shared
// between the launch goroutines and the shutdown path; every access goes
// through the mutex, which is never held across probe or launch I/O.
type Registry struct {
	mu      sync.Mutex
	handles map[model.Role]*Handle
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[model.Role]*Handle, 2),
	}
}

// Register stores the handle for a role. Registering over a live handle is a
// caller bug but must not panic: the previous handle is terminated before the
// slot is overwritten. A handle arriving after ShutdownAll is terminated
// immediately and not stored.
func (r *Registry) Register(ctx context.Context, role model.Role, handle *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		slog.WarnContext(ctx, "registry already shut down, terminating late arrival",
			"role", role, "pid", handle.PID())
		handle.Terminate()
		return
	}
	if prev, ok := r.handles[role]; ok {
		slog.WarnContext(ctx, "role already registered, replacing",
			"role", role, "old_pid", prev.PID(), "new_pid", handle.PID())
		prev.Terminate()
	}
	r.handles[role] = handle
}

// Handle returns the live handle for a role, or nil.
func (r *Registry) Handle(role model.Role) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[role]
}

// ShutdownAll terminates every registered handle best-effort and releases
// ownership. All roles are attempted even if one termination fails; calling
// with no handles registered, or calling again, is a no-op.
func (r *Registry) ShutdownAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for role, handle := range r.handles {
		slog.DebugContext(ctx, "terminating child", "role", role, "pid", handle.PID())
		handle.Terminate()
		delete(r.handles, role)
	}
}
