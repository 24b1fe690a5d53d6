// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
type Recorder interface {
	// Account metrics
	IncUserCreated()
	IncUserUpdated()
	IncUserDeleted()

	// Todo metrics
	IncTodoCreated()
	IncTodoUpdated()
	IncTodoDeleted()

	// Auth metrics
	IncTokenIssued(kind string)  // kind: "login" or "refresh"
	IncAuthFailure(reason string) // reason: "credentials", "token", "rate_limited"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
