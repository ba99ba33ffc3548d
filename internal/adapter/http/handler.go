package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/framescan/framescan/internal/adapter/http/validation"
	"github.com/framescan/framescan/internal/domain"
	"github.com/framescan/framescan/internal/infrastructure/logger"
	"github.com/framescan/framescan/internal/port"
)

// defaultFPS is the sampling rate applied when the uploader does not ask for
// one.
const defaultFPS = 5

// maxFPS bounds the requested sampling rate on the producer side.
const maxFPS = 120

type Handlers struct {
	store     port.JobStore
	publisher port.JobPublisher
	uploadDir string
	maxSizeMB int
}

func NewHandlers(store port.JobStore, publisher port.JobPublisher, uploadDir string, maxSizeMB int) *Handlers {
	return &Handlers{
		store:     store,
		publisher: publisher,
		uploadDir: uploadDir,
		maxSizeMB: maxSizeMB,
	}
}

// Upload accepts a multipart video, initializes the job record and publishes
// the job message. The heavy lifting happens in the worker; this handler only
// validates, persists the file and enqueues.
func (h *Handlers) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		maxBytes := int64(h.maxSizeMB) * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		if err := r.ParseMultipartForm(maxBytes); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close() //nolint:errcheck

		ext, err := validation.ValidateExtension(header.Filename)
		if err != nil {
			writeError(w, http.StatusBadRequest, "supported formats: .mp4, .avi")
			return
		}

		fps := parseFPS(r.FormValue("fps"))

		jobID := uuid.New().String()
		if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
			logger.Error.Printf("create upload dir: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}

		destination := filepath.Join(h.uploadDir, jobID+ext)
		if err := saveUpload(destination, file); err != nil {
			logger.Error.Printf("save upload for job %s: %v", jobID, err)
			writeError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}

		fileName := validation.SanitizeFilename(header.Filename)
		if err := h.store.Init(r.Context(), jobID, fileName, fps); err != nil {
			logger.Error.Printf("init job %s: %v", jobID, err)
			writeError(w, http.StatusInternalServerError, "failed to initialize job")
			return
		}

		msg := domain.JobMessage{
			JobID:         jobID,
			FilePath:      destination,
			FPS:           fps,
			CorrelationID: r.Header.Get("X-Request-Id"),
		}
		if err := h.publisher.Publish(r.Context(), msg); err != nil {
			logger.Error.Printf("publish job %s: %v", jobID, err)
			writeError(w, http.StatusInternalServerError, "failed to enqueue job")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"jobId":           jobID,
			"status":          domain.StatusQueued,
			"statusEndpoint":  fmt.Sprintf("/videos/%s/status", jobID),
			"resultsEndpoint": fmt.Sprintf("/videos/%s/results", jobID),
			"hubEndpoint":     fmt.Sprintf("/hubs/processing/%s", jobID),
		})
	}
}

// Status proxies the store's status and metadata reads.
func (h *Handlers) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := mux.Vars(r)["jobId"]

		state, err := h.store.GetStatus(r.Context(), jobID)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			logger.Error.Printf("get status for job %s: %v", jobID, err)
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}

		body := map[string]interface{}{
			"jobId":        jobID,
			"status":       state.Status,
			"errorMessage": state.ErrorMessage,
		}
		if meta, err := h.store.GetMetadata(r.Context(), jobID); err == nil {
			body["metadata"] = meta
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// Results proxies the store's ordered results read.
func (h *Handlers) Results() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := mux.Vars(r)["jobId"]

		state, err := h.store.GetStatus(r.Context(), jobID)
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			logger.Error.Printf("get status for job %s: %v", jobID, err)
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}

		results, err := h.store.GetResults(r.Context(), jobID)
		if err != nil {
			logger.Error.Printf("get results for job %s: %v", jobID, err)
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}

		body := map[string]interface{}{
			"jobId":        jobID,
			"status":       state.Status,
			"errorMessage": state.ErrorMessage,
			"results":      results,
		}
		if meta, err := h.store.GetMetadata(r.Context(), jobID); err == nil {
			body["metadata"] = meta
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseFPS(raw string) float64 {
	fps, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultFPS
	}
	if fps < 1 {
		return 1
	}
	if fps > maxFPS {
		return maxFPS
	}
	return fps
}

func saveUpload(destination string, src io.Reader) error {
	dst, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer dst.Close() //nolint:errcheck

	_, err = io.Copy(dst, src)
	return err
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
