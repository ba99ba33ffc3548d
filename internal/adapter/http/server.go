package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/framescan/framescan/internal/port"
	"github.com/framescan/framescan/internal/service"
)

// NewServer wires the upload API and the processing hub into one router.
func NewServer(
	store port.JobStore,
	publisher port.JobPublisher,
	eventBus *service.EventBus,
	uploadDir string,
	maxSizeMB int,
) http.Handler {
	handlers := NewHandlers(store, publisher, uploadDir, maxSizeMB)
	hub := NewHubHandler(eventBus)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handlers.Health()).Methods(http.MethodGet)

	r.HandleFunc("/videos", handlers.Upload()).Methods(http.MethodPost)
	r.HandleFunc("/videos/{jobId}/status", handlers.Status()).Methods(http.MethodGet)
	r.HandleFunc("/videos/{jobId}/results", handlers.Results()).Methods(http.MethodGet)

	r.HandleFunc("/hubs/processing", hub.Handshake()).Methods(http.MethodGet)
	r.HandleFunc("/hubs/processing", hub.Invoke()).Methods(http.MethodPost)
	r.HandleFunc("/hubs/processing/{jobId}", hub.Subscribe()).Methods(http.MethodGet)

	return r
}
