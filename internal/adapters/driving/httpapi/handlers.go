// Package httpapi exposes the engine over an HTTP JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/custodia-labs/ragdex/internal/core/domain"
	"github.com/custodia-labs/ragdex/internal/core/ports/driving"
	"github.com/custodia-labs/ragdex/internal/core/services"
	"github.com/custodia-labs/ragdex/internal/logger"
)

// Version is the reported API version.
const Version = "1.0.0"

// maxUploadBytes bounds a single multipart upload request.
const maxUploadBytes = 100 << 20

// Handler holds the dependencies for HTTP handlers. The engine is
// reached through the lifecycle handle so requests arriving during
// background initialization get a clean 503 instead of blocking.
type Handler struct {
	handle *services.Handle
}

// NewHandler creates a new Handler backed by the lifecycle handle.
func NewHandler(handle *services.Handle) *Handler {
	return &Handler{handle: handle}
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// statusResponse is the JSON envelope for status-and-message replies.
type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

// askRequest is the POST /ask request body.
type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// healthResponse is the GET /health response body.
type healthResponse struct {
	Status string `json:"status"`
	domain.Stats
}

// engine resolves the engine, answering 503 (or 500 when startup
// failed) itself when it is not available. A nil return means the
// response has been written.
func (h *Handler) engine(w http.ResponseWriter) driving.Engine {
	engine, err := h.handle.Engine()
	if err == nil {
		return engine
	}
	if h.handle.Phase() == services.PhaseFailed {
		sendJSON(w, http.StatusInternalServerError, errorResponse{
			Error: fmt.Sprintf("engine failed to start: %v", h.handle.Err()),
		})
		return nil
	}
	w.Header().Set("Retry-After", "2")
	sendJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "engine is initializing"})
	return nil
}

// HandleRoot handles GET / requests.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, statusResponse{
		Status:  "healthy",
		Message: "Ragdex is running",
		Version: Version,
	})
}

// HandlePing handles GET /ping requests.
func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w)
	if engine == nil {
		return
	}
	sendJSON(w, http.StatusOK, healthResponse{
		Status: "healthy",
		Stats:  engine.Stats(r.Context()),
	})
}

// HandleStats handles GET /stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w)
	if engine == nil {
		return
	}
	sendJSON(w, http.StatusOK, engine.Stats(r.Context()))
}

// HandleUploadPDFs handles POST /upload-pdfs requests. It accepts a
// multipart batch under the "files" field and returns one result per
// file; a failing file never aborts the rest of the batch.
func (h *Handler) HandleUploadPDFs(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w)
	if engine == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart request: " + err.Error()})
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "no files provided"})
		return
	}

	results := make([]domain.UploadResult, 0, len(files))
	for _, fh := range files {
		data, err := readMultipartFile(fh)
		if err != nil {
			results = append(results, domain.UploadResult{
				Status:   domain.UploadError,
				Filename: fh.Filename,
				Message:  "Error reading file: " + err.Error(),
			})
			continue
		}

		// Processing failures are carried inside the result.
		result, _ := engine.Upload(r.Context(), fh.Filename, data, domain.ActionAuto)
		results = append(results, result)
	}

	sendJSON(w, http.StatusOK, results)
}

// HandleDuplicate handles POST /handle-duplicate requests: the
// follow-up call after an upload reported a duplicate, carrying the
// same file plus the chosen action.
func (h *Handler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w)
	if engine == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart request: " + err.Error()})
		return
	}

	action, err := domain.ParseUploadAction(r.FormValue("action"))
	if err != nil || action == domain.ActionAuto {
		sendJSON(w, http.StatusBadRequest, errorResponse{
			Error: "action must be 'use_existing', 'replace', or 'cancel'",
		})
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "exactly one file is required"})
		return
	}

	data, err := readMultipartFile(files[0])
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "error reading file: " + err.Error()})
		return
	}

	result, err := engine.Upload(r.Context(), files[0].Filename, data, action)
	if err != nil && result.Status != domain.UploadError {
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	sendJSON(w, http.StatusOK, result)
}

// HandleAsk handles POST /ask requests.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w)
	if engine == nil {
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	answer, err := engine.Ask(r.Context(), req.Question, req.TopK)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "question cannot be empty"})
			return
		}
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: "error generating answer: " + err.Error()})
		return
	}

	sendJSON(w, http.StatusOK, answer)
}

// HandleDocuments handles GET /documents requests.
func (h *Handler) HandleDocuments(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w)
	if engine == nil {
		return
	}
	sendJSON(w, http.StatusOK, engine.Documents(r.Context()))
}

// HandleDeleteDocument handles DELETE /documents/{doc_id} requests.
func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(w)
	if engine == nil {
		return
	}

	docID := mux.Vars(r)["doc_id"]
	message, err := engine.Delete(r.Context(), docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			sendJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	sendJSON(w, http.StatusOK, statusResponse{Status: "success", Message: message})
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// sendJSON writes a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}
