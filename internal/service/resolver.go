package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/pharmadesk/launchpad/internal/model"
)

// Candidate is one entry in an ordered fallback list of ways to start a role.
type Candidate struct {
	Path string
	Args []string
	Dir  string
	Env  map[string]string // overrides on top of the inherited environment
}

// Handle is an owned reference to a running child process.
type Handle struct {
	id        string
	role      model.Role
	cmd       *exec.Cmd
	attempted []string
	done      chan struct{}
	terminate sync.Once
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Role() model.Role { return h.role }

func (h *Handle) PID() int { return h.cmd.Process.Pid }

// Path is the program the child was spawned with.
func (h *Handle) Path() string { return h.cmd.Path }

// Attempted lists the candidate programs that failed to spawn before this one.
func (h *Handle) Attempted() []string { return h.attempted }

// Done is closed once the child has exited and been reaped.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Terminate kills the child best-effort. Idempotent; errors (including a
// child already gone) are swallowed.
func (h *Handle) Terminate() {
	h.terminate.Do(func() {
		_ = h.cmd.Process.Kill()
	})
}

func (h *Handle) reap(closer io.Closer) {
	_ = h.cmd.Wait()
	if closer != nil {
		_ = closer.Close()
	}
	close(h.done)
}

// Resolver spawns the first candidate that starts. LogDir, when set, receives
// one <role>.log file with the child's combined stdout and stderr.
type Resolver struct {
	LogDir string
}

// Resolve tries candidates strictly in order, each exactly once, and returns
// a Handle for the first successful spawn. If every candidate fails to spawn
// it returns a *model.ResolutionError naming all of them. There is no retry
// or backoff at this layer.
func (r Resolver) Resolve(ctx context.Context, role model.Role, candidates []Candidate) (*Handle, error) {
	if len(candidates) == 0 {
		return nil, &model.ResolutionError{Role: role, Err: errors.New("no candidates configured")}
	}

	out, closer := r.output(ctx, role)

	var attempted []string
	var lastErr error
	for _, c := range candidates {
		cmd := exec.Command(c.Path, c.Args...)
		cmd.Dir = c.Dir
		if len(c.Env) > 0 {
			env := os.Environ()
			for k, v := range c.Env {
				env = append(env, k+"="+v)
			}
			cmd.Env = env
		}
		cmd.Stdout = out
		cmd.Stderr = out

		if err := cmd.Start(); err != nil {
			slog.DebugContext(ctx, "candidate failed to spawn",
				"role", role, "path", c.Path, "error", err)
			attempted = append(attempted, c.Path)
			lastErr = err
			continue
		}

		h := &Handle{
			id:        uuid.NewString(),
			role:      role,
			cmd:       cmd,
			attempted: attempted,
			done:      make(chan struct{}),
		}
		go h.reap(closer)
		slog.InfoContext(ctx, "process spawned",
			"role", role, "path", c.Path, "pid", h.PID(), "handle_id", h.id)
		return h, nil
	}

	if closer != nil {
		_ = closer.Close()
	}
	return nil, &model.ResolutionError{Role: role, Attempted: attempted, Err: lastErr}
}

// output returns the writer for the child's combined output. The file, when
// one is opened, is closed by the reaper after the child exits.
func (r Resolver) output(ctx context.Context, role model.Role) (io.Writer, io.Closer) {
	if r.LogDir == "" {
		return io.Discard, nil
	}
	path := filepath.Join(r.LogDir, string(role)+".log")
	f, err := os.Create(path)
	if err != nil {
		slog.WarnContext(ctx, "cannot create child log file, discarding output",
			"role", role, "path", path, "error", err)
		return io.Discard, nil
	}
	return f, f
}
