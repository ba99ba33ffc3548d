package port

import "context"

// Notifier announces terminal job outcomes on a best-effort push channel.
// Both methods log and return on any transport failure; they never error back
// to the caller and never affect job state.
type Notifier interface {
	NotifyCompleted(ctx context.Context, jobID string, resultCount int)
	NotifyFailed(ctx context.Context, jobID string, errorMessage string)
}
