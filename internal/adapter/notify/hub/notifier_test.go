package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hubRecorder struct {
	mu          sync.Mutex
	handshakes  int
	invocations []invocation
	failNext    bool
}

func (h *hubRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			h.handshakes++
			w.WriteHeader(http.StatusNoContent)
		case http.MethodPost:
			if h.failNext {
				h.failNext = false
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			var inv invocation
			if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			h.invocations = append(h.invocations, inv)
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

func TestNotifierSendsInvocations(t *testing.T) {
	rec := &hubRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	n := NewNotifier(true, srv.URL)
	ctx := context.Background()

	n.NotifyCompleted(ctx, "job-1", 3)
	n.NotifyFailed(ctx, "job-2", "ffmpeg exited 1")

	require.Len(t, rec.invocations, 2)
	assert.Equal(t, methodCompleted, rec.invocations[0].Method)
	assert.Equal(t, "job-1", rec.invocations[0].JobID)
	assert.Equal(t, 3, rec.invocations[0].ResultCount)
	assert.Equal(t, methodFailed, rec.invocations[1].Method)
	assert.Equal(t, "ffmpeg exited 1", rec.invocations[1].ErrorMessage)
}

func TestNotifierHandshakesOnce(t *testing.T) {
	rec := &hubRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	n := NewNotifier(true, srv.URL)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.NotifyCompleted(ctx, "job-1", 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, rec.handshakes)
	assert.Len(t, rec.invocations, 8)
}

func TestNotifierDisabledSendsNothing(t *testing.T) {
	rec := &hubRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	n := NewNotifier(false, srv.URL)
	n.NotifyCompleted(context.Background(), "job-1", 3)

	assert.Zero(t, rec.handshakes)
	assert.Empty(t, rec.invocations)
}

func TestNotifierSurvivesUnreachableHub(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	n := NewNotifier(true, url)
	// Must not panic or block the caller.
	n.NotifyCompleted(context.Background(), "job-1", 3)
	n.NotifyFailed(context.Background(), "job-1", "boom")
}

func TestNotifierReconnectsAfterFailedInvocation(t *testing.T) {
	rec := &hubRecorder{failNext: true}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	n := NewNotifier(true, srv.URL)
	ctx := context.Background()

	n.NotifyCompleted(ctx, "job-1", 1)
	assert.Empty(t, rec.invocations)

	n.NotifyCompleted(ctx, "job-1", 2)
	require.Len(t, rec.invocations, 1)
	assert.Equal(t, 2, rec.invocations[0].ResultCount)
	// The failed invocation dropped the connection; the retry re-handshakes.
	assert.Equal(t, 2, rec.handshakes)
}
