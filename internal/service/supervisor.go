package service

import (
	"context"
	"log/slog"

	"github.com/pharmadesk/launchpad/internal/model"
	"github.com/pharmadesk/launchpad/internal/shell"
)

// Supervisor wires the launcher, the readiness gate and the process registry
// to a display surface.
type Supervisor struct {
	cfg      model.Config
	surface  shell.Surface
	registry *Registry
	launcher *Launcher
	gate     *Gate
}

func NewSupervisor(cfg model.Config, surface shell.Surface) *Supervisor {
	s := &Supervisor{
		cfg:      cfg,
		surface:  surface,
		registry: NewRegistry(),
		launcher: NewLauncher(cfg),
	}

	timeout := cfg.Gate.ProbeTimeout
	if timeout <= 0 {
		timeout = cfg.Gate.Interval
	}
	s.gate = NewGate(cfg.Gate, cfg.Backend.ProbeURL(), cfg.Frontend.URL,
		NewHTTPProbe(timeout), s.onTick)
	return s
}

// Registry exposes the shared process ownership, mainly for the CLI and
// tests.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

func (s *Supervisor) onTick(ctx context.Context, attempt int, status Status) {
	slog.InfoContext(ctx, "waiting for services",
		"attempt", attempt, "max_attempts", s.cfg.Gate.MaxAttempts, "status", status.String())
	if err := s.surface.UpdateStatus(ctx, status.Message()); err != nil {
		slog.DebugContext(ctx, "status update not delivered", "error", err)
	}
}

// Do runs the supervisor until the shell requests a close or ctx ends.
// It multiplexes three concerns:
//  1. Both roles are launched on independent goroutines; a failed launch is
//     logged and isolated. The gate still polls that role's endpoint to full
//     exhaustion, so a role that can never come up surfaces as the timeout
//     page rather than an early abort.
//  2. The gate polls from the first moment, without waiting for the launches.
//     On Ready the surface is pointed at the frontend; on TimedOut it renders
//     the error view with its manual-retry affordance.
//  3. A close request (or ctx cancellation) ends the loop.
//
// Shutdown (deferred order): wait for the launch goroutines, signal every
// registered child best-effort, return without awaiting child exit.
func (s *Supervisor) Do(ctx context.Context) error {
	slog.DebugContext(ctx, "starting supervisor")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	defer s.registry.ShutdownAll(context.WithoutCancel(ctx))

	launches := s.launcher.StartAll(ctx, s.registry)
	defer launches.Wait()

	outcome := make(chan Outcome, 1)
	go func() {
		outcome <- s.gate.Wait(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.surface.CloseRequests():
			slog.InfoContext(ctx, "close requested, shutting down")
			return nil
		case o := <-outcome:
			outcome = nil
			switch o {
			case Ready:
				slog.InfoContext(ctx, "handing off to frontend", "url", s.cfg.Frontend.URL)
				if err := s.surface.NavigateTo(ctx, s.cfg.Frontend.URL); err != nil {
					slog.ErrorContext(ctx, "hand-off failed", "error", err)
				}
			case TimedOut:
				slog.ErrorContext(ctx, "services not ready, giving up",
					"attempts", s.cfg.Gate.MaxAttempts)
				if err := s.surface.RenderContent(ctx, shell.ErrorPage()); err != nil {
					slog.ErrorContext(ctx, "error view not delivered", "error", err)
				}
			case Canceled:
			}
		}
	}
}
