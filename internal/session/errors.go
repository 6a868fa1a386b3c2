package session

import "errors"

// Error taxonomy for the session boundary. All of these are recovered
// inside the manager and converted into a wire.Result; callers of
// Execute never see them as Go errors.
var (
	// ErrSessionUnavailable: the session could not be started or
	// restarted; the query was not attempted.
	ErrSessionUnavailable = errors.New("session unavailable")

	// ErrCanaryFailed: the subprocess spawned but the end-to-end
	// self-test query did not come back as a simple success.
	ErrCanaryFailed = errors.New("session canary query failed")

	// ErrProcessDead: liveness check failed mid-query. Triggers the
	// single automatic start-and-retry.
	ErrProcessDead = errors.New("interpreter process dead")
)
