// Package hub pushes job outcome notifications to the API's processing hub,
// which fans them out to per-job subscriber groups. Delivery is best-effort:
// nothing in here ever fails the job that triggered the notification.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/framescan/framescan/internal/infrastructure/logger"
	"github.com/framescan/framescan/internal/port"
)

const (
	methodCompleted = "NotifyCompleted"
	methodFailed    = "NotifyFailed"
)

// invocation is the wire form of one hub method call.
type invocation struct {
	Method       string `json:"method"`
	JobID        string `json:"jobId"`
	ResultCount  int    `json:"resultCount,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

type Notifier struct {
	enabled bool
	hubURL  string
	client  *http.Client

	// mu guards the lazy connection state: at most one handshake attempt
	// proceeds at a time, and an established connection is reused until an
	// invocation fails.
	mu        sync.Mutex
	connected bool
}

func NewNotifier(enabled bool, hubURL string) *Notifier {
	return &Notifier{
		enabled: enabled,
		hubURL:  hubURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Notifier) NotifyCompleted(ctx context.Context, jobID string, resultCount int) {
	n.invoke(ctx, invocation{Method: methodCompleted, JobID: jobID, ResultCount: resultCount})
}

func (n *Notifier) NotifyFailed(ctx context.Context, jobID string, errorMessage string) {
	n.invoke(ctx, invocation{Method: methodFailed, JobID: jobID, ErrorMessage: errorMessage})
}

func (n *Notifier) invoke(ctx context.Context, inv invocation) {
	if !n.enabled || n.hubURL == "" {
		logger.Debug.Printf("notifications disabled; skipping %s for job %s", inv.Method, inv.JobID)
		return
	}

	if !n.ensureConnected(ctx) {
		logger.Warn.Printf("hub unreachable; dropping %s for job %s", inv.Method, inv.JobID)
		return
	}

	body, err := json.Marshal(inv)
	if err != nil {
		logger.Warn.Printf("marshal %s for job %s: %v", inv.Method, inv.JobID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.hubURL, bytes.NewReader(body))
	if err != nil {
		logger.Warn.Printf("build %s request for job %s: %v", inv.Method, inv.JobID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.markDisconnected()
		logger.Warn.Printf("invoke %s for job %s: %v", inv.Method, inv.JobID, err)
		return
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.markDisconnected()
		logger.Warn.Printf("invoke %s for job %s: hub returned %d", inv.Method, inv.JobID, resp.StatusCode)
	}
}

// ensureConnected performs the lazy handshake on first use. The lock is held
// across the attempt so concurrent notifications cannot race a second one.
func (n *Notifier) ensureConnected(ctx context.Context) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.connected {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.hubURL, nil)
	if err != nil {
		return false
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return false
	}
	n.connected = true
	return true
}

func (n *Notifier) markDisconnected() {
	n.mu.Lock()
	n.connected = false
	n.mu.Unlock()
}

var _ port.Notifier = (*Notifier)(nil)
