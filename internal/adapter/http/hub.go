package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/framescan/framescan/internal/infrastructure/logger"
	"github.com/framescan/framescan/internal/service"
)

// HubHandler is the receiving end of the worker's notification relay and the
// push channel towards API clients. The worker posts named invocations to the
// hub root; clients subscribe to a per-job group over SSE.
type HubHandler struct {
	eventBus *service.EventBus
}

func NewHubHandler(eventBus *service.EventBus) *HubHandler {
	return &HubHandler{eventBus: eventBus}
}

// hubInvocation mirrors the relay's wire format.
type hubInvocation struct {
	Method       string `json:"method"`
	JobID        string `json:"jobId"`
	ResultCount  int    `json:"resultCount"`
	ErrorMessage string `json:"errorMessage"`
}

// Invoke handles one worker invocation and fans it out to the job's
// subscriber group.
func (h *HubHandler) Invoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var inv hubInvocation
		if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
			writeError(w, http.StatusBadRequest, "invalid invocation")
			return
		}
		if inv.JobID == "" {
			writeError(w, http.StatusBadRequest, "missing jobId")
			return
		}

		var event service.Event
		switch inv.Method {
		case "NotifyCompleted":
			event = service.Event{Type: service.EventCompleted, JobID: inv.JobID, ResultCount: inv.ResultCount}
		case "NotifyFailed":
			event = service.Event{Type: service.EventFailed, JobID: inv.JobID, ErrorMessage: inv.ErrorMessage}
		default:
			writeError(w, http.StatusBadRequest, "unknown method")
			return
		}

		h.eventBus.Publish(inv.JobID, event)
		w.WriteHeader(http.StatusAccepted)
	}
}

// Handshake answers the relay's lazy connection probe.
func (h *HubHandler) Handshake() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// Subscribe streams a job's outcome events to the client over SSE.
func (h *HubHandler) Subscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := mux.Vars(r)["jobId"]

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ch := h.eventBus.Subscribe(jobID)
		defer h.eventBus.Unsubscribe(jobID, ch)

		// Initial comment so proxies flush the connection open.
		_, _ = fmt.Fprint(w, ": subscribed\n\n")
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, open := <-ch:
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					logger.Error.Printf("encode event for job %s: %v", jobID, err)
					continue
				}
				sseWrite(w, event.Type, string(payload))
				flusher.Flush()
			}
		}
	}
}

// sseWrite writes an SSE event, handling multi-line data correctly.
func sseWrite(w http.ResponseWriter, eventName string, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
}
