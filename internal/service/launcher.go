package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pharmadesk/launchpad/internal/model"
)

// Launcher builds the launch specifications for both roles and drives the
// Resolver for each of them.
type Launcher struct {
	cfg      model.Config
	resolver Resolver
}

func NewLauncher(cfg model.Config) *Launcher {
	return &Launcher{
		cfg:      cfg,
		resolver: Resolver{LogDir: cfg.LogDir},
	}
}

// BackendCandidates prefers the project virtualenv interpreter when it exists
// under the backend dir, then falls back to the configured interpreter names.
// Every candidate runs the same uvicorn invocation.
func (l *Launcher) BackendCandidates() []Candidate {
	b := l.cfg.Backend
	args := []string{"-m", "uvicorn", b.App, "--host", b.Host, "--port", strconv.Itoa(b.Port)}

	var candidates []Candidate
	venv := filepath.Join(b.Dir, "venv", "bin", "python")
	if info, err := os.Stat(venv); err == nil && info.Mode().IsRegular() {
		candidates = append(candidates, Candidate{Path: venv, Args: args, Dir: b.Dir})
	}
	for _, interpreter := range b.Interpreters {
		candidates = append(candidates, Candidate{Path: interpreter, Args: args, Dir: b.Dir})
	}
	return candidates
}

// FrontendCandidates is the ordered package-manager fallback list.
func (l *Launcher) FrontendCandidates() []Candidate {
	f := l.cfg.Frontend
	candidates := make([]Candidate, 0, len(f.Launchers))
	for _, inv := range f.Launchers {
		candidates = append(candidates, Candidate{
			Path: inv.Name,
			Args: inv.Args,
			Dir:  f.Dir,
			// keep the dev server from opening an external browser window
			Env: map[string]string{"BROWSER": "none"},
		})
	}
	return candidates
}

// StartAll launches both roles on independent goroutines, registering each
// handle as its resolution completes. A slow or failing resolution for one
// role never delays the other, nor the readiness polling.
func (l *Launcher) StartAll(ctx context.Context, reg *Registry) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Go(func() {
		l.launch(ctx, reg, model.RoleBackend, l.BackendCandidates())
	})
	wg.Go(func() {
		l.launch(ctx, reg, model.RoleFrontend, l.FrontendCandidates())
	})
	return &wg
}

func (l *Launcher) launch(ctx context.Context, reg *Registry, role model.Role, candidates []Candidate) {
	handle, err := l.resolver.Resolve(ctx, role, candidates)
	if err != nil {
		// The gate keeps polling this role's endpoint to full exhaustion;
		// the timeout page is the single user-visible failure path.
		slog.ErrorContext(ctx, "launch failed", "role", role, "error", err)
		return
	}
	reg.Register(ctx, role, handle)

	go func() {
		<-handle.Done()
		slog.DebugContext(ctx, "child exited", "role", role, "pid", handle.PID())
	}()
}
