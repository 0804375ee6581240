package service

// Package service implements launching and supervision of the two dev-server
// subprocesses behind the application shell.
//
// Overview
// The Supervisor owns a Registry of per-role process handles, a Launcher and
// a readiness Gate. Both roles are launched on independent goroutines while
// the Gate polls their liveness endpoints on a fixed cadence; neither waits
// for the other.
//
// Resolver is a thin, opinionated wrapper around os/exec:
//   - tries an ordered list of candidate commands, once each
//   - a candidate fails only if the spawn itself fails; a spawned process
//     exiting non-zero later is the child's business, not a resolution failure
//   - redirects child stdout/stderr to a per-role log file (never read back)
//   - reaps the child in a background goroutine
//
// Data flow:
//
//	Supervisor           Launcher                Registry
//	    |                   |                       |
//	 Do |--- StartAll ----->| Resolve(backend) ---->| Register
//	    |                   | Resolve(frontend) --->| Register
//	    |                   |                       |
//	    |--- Gate.Wait: tick = probe both in parallel, emit status
//	    |<-- Ready ------------> surface.NavigateTo(frontend URL)
//	    |<-- TimedOut ---------> surface.RenderContent(error page)
//	    |<-- close request ----> Registry.ShutdownAll (best effort)
//
// Invariants:
//   - At most one live Handle per role; replacing terminates the old one first.
//   - Status updates are emitted strictly one per tick, in attempt order.
//   - Once the gate returns Ready or TimedOut, no further probe fires.
//   - The registry lock is never held across probe or launch I/O.
//   - Shutdown signals children and returns; their exit is not awaited.
