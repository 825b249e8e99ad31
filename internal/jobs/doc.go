// Package jobs runs the periodic background work of the Accord API.
//
//   - Recomputer: rescores every eligible partnership pair and refreshes
//     the stored match index
//   - HandshakeExpirer: moves handshakes pending longer than the TTL to
//     expired
//
// Both follow the same lifecycle: Start launches a ticker goroutine, Stop
// closes it and waits, RunOnce performs a single pass synchronously and
// IsRunning reports whether the schedule is active. A zero interval (or
// TTL) disables the schedule. Failures are logged and never stop the loop.
package jobs
