// Package shell is the boundary between the supervisor and the display
// surface showing the application window. The supervisor pushes status lines,
// full-page content and navigation instructions; the surface owns a single
// close-request event which the supervisor's shutdown path subscribes to.
package shell

import (
	"context"
	_ "embed"
)

// Surface is implemented by the display shell. All methods may be called from
// the supervisor's goroutines; implementations must be safe for concurrent
// use.
type Surface interface {
	// UpdateStatus replaces the status line of the loading view.
	UpdateStatus(ctx context.Context, line string) error
	// RenderContent replaces the whole view with the given HTML.
	RenderContent(ctx context.Context, html string) error
	// NavigateTo points the surface at url, leaving the loading view behind.
	NavigateTo(ctx context.Context, url string) error
	// CloseRequests is closed exactly once when the shell asks to exit.
	CloseRequests() <-chan struct{}
}

//go:embed pages/loading.html
var loadingPage []byte

//go:embed pages/error.html
var errorPage string

// ErrorPage is the terminal failure view: it explains how to start both
// services by hand and offers a retry button.
func ErrorPage() string {
	return errorPage
}
