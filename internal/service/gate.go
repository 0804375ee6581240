package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pharmadesk/launchpad/internal/model"
)

// Status is derived fresh on every tick from the two probe booleans; it
// carries no memory between ticks.
type Status int

const (
	BothPending Status = iota
	BackendOnly
	FrontendOnly
	BothReady
)

// StatusOf derives the tick status from the two probe results.
func StatusOf(backendReady, frontendReady bool) Status {
	switch {
	case backendReady && frontendReady:
		return BothReady
	case backendReady:
		return BackendOnly
	case frontendReady:
		return FrontendOnly
	default:
		return BothPending
	}
}

func (s Status) String() string {
	switch s {
	case BackendOnly:
		return "backend only"
	case FrontendOnly:
		return "frontend only"
	case BothReady:
		return "both ready"
	default:
		return "both pending"
	}
}

// Message is the human-readable status line shown on the loading view.
func (s Status) Message() string {
	switch s {
	case BackendOnly:
		return "Waiting for frontend..."
	case FrontendOnly:
		return "Waiting for backend..."
	case BothReady:
		return "Ready"
	default:
		return "Starting services..."
	}
}

// Outcome is the terminal result of the gate.
type Outcome int

const (
	Ready Outcome = iota
	TimedOut
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case TimedOut:
		return "timed out"
	default:
		return "canceled"
	}
}

// Notifier receives exactly one ordered status update per polling tick.
// Attempt counts are monotonic; the gate never calls it concurrently.
type Notifier func(ctx context.Context, attempt int, status Status)

// Gate polls both liveness endpoints on a fixed interval up to a bounded
// attempt count.
type Gate struct {
	backendURL  string
	frontendURL string
	prober      Prober
	interval    time.Duration
	maxAttempts int
	notify      Notifier
}

func NewGate(cfg model.Gate, backendURL, frontendURL string, prober Prober, notify Notifier) *Gate {
	if notify == nil {
		notify = func(context.Context, int, Status) {}
	}
	return &Gate{
		backendURL:  backendURL,
		frontendURL: frontendURL,
		prober:      prober,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		notify:      notify,
	}
}

// Wait runs the polling loop. The first tick fires immediately; probing a
// service that has not started yet simply fails and is retried. Ready and
// TimedOut are terminal: once Wait returns, no further probe fires. Canceled
// is returned when ctx ends first; in-flight probes are abandoned to their
// context, not awaited beyond the tick join.
func (g *Gate) Wait(ctx context.Context) Outcome {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		backendUp, frontendUp := g.tick(ctx)
		if backendUp && frontendUp {
			slog.InfoContext(ctx, "both services ready", "attempt", attempt)
			return Ready
		}

		g.notify(ctx, attempt, StatusOf(backendUp, frontendUp))
		if attempt >= g.maxAttempts {
			return TimedOut
		}

		select {
		case <-ctx.Done():
			return Canceled
		case <-ticker.C:
		}
	}
}

// tick issues both probes in parallel and joins them, so tick latency is
// roughly the slower probe, not the sum of the two.
func (g *Gate) tick(ctx context.Context) (backendUp, frontendUp bool) {
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		backendUp = g.prober.Check(gctx, g.backendURL)
		return nil
	})
	grp.Go(func() error {
		frontendUp = g.prober.Check(gctx, g.frontendURL)
		return nil
	})
	_ = grp.Wait() // probes fold all failure into false
	return backendUp, frontendUp
}
