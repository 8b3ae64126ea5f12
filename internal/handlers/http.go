package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/casetrace/smart-import/internal/analysis"
	"github.com/casetrace/smart-import/internal/batch"
	"github.com/casetrace/smart-import/internal/classify"
	"github.com/casetrace/smart-import/internal/config"
	"github.com/casetrace/smart-import/internal/custody"
	"github.com/casetrace/smart-import/internal/database"
	"github.com/casetrace/smart-import/internal/kafka"
	"github.com/casetrace/smart-import/internal/metrics"
	"github.com/casetrace/smart-import/internal/neo4j"
)

// HTTPHandlers holds HTTP route handlers for the import workflow.
type HTTPHandlers struct {
	batch      *batch.Manager
	engine     *analysis.Engine
	repository *database.Repository
	graph      *neo4j.Client
	producer   *kafka.Producer
	metrics    *metrics.Collector
	config     *config.Config
	logger     *slog.Logger

	// lastResult holds the most recent analysis run so a confirm request can
	// persist it. Running a new analysis replaces it; confirming clears it.
	mu         sync.Mutex
	lastResult *analysis.Result
}

// RemapRequest is the body of a column remap request.
type RemapRequest struct {
	CanonicalField string `json:"canonical_field"`
}

// ConfirmRequest is the body of an analysis confirmation request.
type ConfirmRequest struct {
	CaseID string `json:"case_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

var startTime = time.Now()

// NewHTTPHandlers creates new HTTP handlers.
func NewHTTPHandlers(
	batchManager *batch.Manager,
	engine *analysis.Engine,
	repository *database.Repository,
	graph *neo4j.Client,
	producer *kafka.Producer,
	collector *metrics.Collector,
	cfg *config.Config,
	logger *slog.Logger,
) *HTTPHandlers {
	return &HTTPHandlers{
		batch:      batchManager,
		engine:     engine,
		repository: repository,
		graph:      graph,
		producer:   producer,
		metrics:    collector,
		config:     cfg,
		logger:     logger,
	}
}

// RegisterRoutes registers HTTP routes.
func (h *HTTPHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/import/files", h.UploadFile).Methods("POST")
	router.HandleFunc("/api/v1/import/files", h.ListFiles).Methods("GET")
	router.HandleFunc("/api/v1/import/files", h.ClearBatch).Methods("DELETE")
	router.HandleFunc("/api/v1/import/files/{file}", h.RemoveFile).Methods("DELETE")
	router.HandleFunc("/api/v1/import/files/{file}/columns/{header}", h.RemapColumn).Methods("PUT")

	router.HandleFunc("/api/v1/import/analysis", h.RunAnalysis).Methods("POST")
	router.HandleFunc("/api/v1/import/analysis/confirm", h.ConfirmAnalysis).Methods("POST")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/ready", h.ReadinessCheck).Methods("GET")
	router.HandleFunc("/health/ready", h.ReadinessCheck).Methods("GET")
	router.HandleFunc("/health/live", h.LivenessCheck).Methods("GET")
}

// UploadFile adds one tabular file to the current import batch. The file is
// parsed, mapped and classified immediately so the response already carries
// the proposed column mappings and any warnings. A chain-of-custody record is
// written before the response is sent.
func (h *HTTPHandlers) UploadFile(w http.ResponseWriter, r *http.Request) {
	if len(h.batch.Files()) >= h.config.Import.MaxBatchFiles {
		h.sendError(w, http.StatusBadRequest, "BATCH_FULL",
			fmt.Sprintf("batch holds at most %d files", h.config.Import.MaxBatchFiles), nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.Import.MaxFileBytes)

	name, content, err := h.readUpload(r)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_UPLOAD", "failed to read uploaded file", err)
		return
	}

	digest := custody.Digest(content)

	parsed, err := h.batch.AddFile(name, content, digest)
	if err != nil {
		h.sendError(w, http.StatusConflict, "DUPLICATE_FILE", "file is already in the batch", err)
		return
	}

	h.metrics.FilesUploadedTotal.Inc()
	if parsed.Status == batch.StatusError && parsed.Headers == nil {
		h.metrics.ParseErrorsTotal.Inc()
	} else {
		h.metrics.FileRecordsHistogram.Observe(float64(parsed.RecordCount))
	}

	columnsInfo, _ := json.Marshal(parsed.Mappings)
	evidence := &database.Evidence{
		ID:          uuid.New().String(),
		FileName:    parsed.Name,
		SHA256:      digest,
		FileSize:    int64(len(content)),
		RecordType:  string(parsed.RecordType),
		RecordCount: parsed.RecordCount,
		ColumnsInfo: string(columnsInfo),
		CollectedAt: time.Now().UTC(),
	}
	if err := h.repository.CreateEvidence(r.Context(), evidence); err != nil {
		h.logger.Error("failed to write evidence record", "file", parsed.Name, "error", err)
		h.metrics.PersistenceErrors.Inc()
		// The batch entry stands; custody can be re-recorded out of band.
	}

	h.sendJSON(w, http.StatusCreated, parsed)
}

// UploadRequest is the JSON alternative to a multipart upload.
type UploadRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// readUpload accepts either a multipart form with a "file" part or a JSON
// body carrying the file name and content.
func (h *HTTPHandlers) readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req UploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", nil, fmt.Errorf("failed to decode upload body: %w", err)
		}
		if req.Name == "" {
			return "", nil, fmt.Errorf("file name is required")
		}
		return req.Name, []byte(req.Content), nil
	}

	if err := r.ParseMultipartForm(h.config.Import.MaxFileBytes); err != nil {
		return "", nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("file part is required: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

// ListFiles returns the batch contents in upload order.
func (h *HTTPHandlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	files := h.batch.Files()
	h.sendJSON(w, http.StatusOK, map[string]any{
		"files": files,
		"count": len(files),
	})
}

// RemapColumn overrides one column's canonical field and returns the file
// with its recomputed type, mappings and warnings.
func (h *HTTPHandlers) RemapColumn(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	fileName := vars["file"]
	header := vars["header"]

	var req RemapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_BODY", "failed to decode request body", err)
		return
	}

	parsed, err := h.batch.RemapColumn(fileName, header, req.CanonicalField)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "REMAP_FAILED", "failed to remap column", err)
		return
	}

	h.metrics.ColumnsRemappedTotal.Inc()
	h.sendJSON(w, http.StatusOK, parsed)
}

// RemoveFile discards one file from the batch.
func (h *HTTPHandlers) RemoveFile(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["file"]

	if err := h.batch.Remove(fileName); err != nil {
		h.sendError(w, http.StatusNotFound, "FILE_NOT_FOUND", "file is not in the batch", err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]string{"file": fileName, "status": "removed"})
}

// ClearBatch discards every file and any unconfirmed analysis result.
func (h *HTTPHandlers) ClearBatch(w http.ResponseWriter, r *http.Request) {
	h.batch.Clear()

	h.mu.Lock()
	h.lastResult = nil
	h.mu.Unlock()

	h.sendJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// RunAnalysis executes the resolution and scoring pipeline over the current
// batch. It answers 409 while any file still carries an error-severity
// warning. The result is held in memory until confirmed or replaced.
func (h *HTTPHandlers) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Run(r.Context(), h.batch.Files())
	if err != nil {
		if errors.Is(err, analysis.ErrUnresolvedWarnings) || errors.Is(err, analysis.ErrEmptyBatch) {
			h.sendJSON(w, http.StatusConflict, map[string]any{
				"error":    err.Error(),
				"code":     "BATCH_NOT_READY",
				"warnings": h.blockingWarnings(),
			})
			return
		}
		h.sendError(w, http.StatusInternalServerError, "ANALYSIS_FAILED", "analysis run failed", err)
		return
	}

	h.mu.Lock()
	h.lastResult = result
	h.mu.Unlock()

	if err := h.producer.PublishAnalysisEvent(r.Context(), kafka.AnalysisEvent{
		EventType:    kafka.EventAnalysisCompleted,
		RunID:        result.RunID,
		FileCount:    len(h.batch.Files()),
		EntityCount:  result.Summary.TotalEntities,
		EdgeCount:    result.Summary.TotalEdges,
		HighRisk:     result.Summary.HighRiskEntities,
		SuspectCount: result.Summary.SuspectCount,
	}); err != nil {
		h.logger.Error("failed to publish analysis event", "run_id", result.RunID, "error", err)
		h.metrics.KafkaErrors.Inc()
	}

	h.sendJSON(w, http.StatusOK, result)
}

// ConfirmAnalysis persists the most recent analysis result into the case
// graph and records the confirmed run. The in-memory result is cleared on
// success so the same run cannot be confirmed twice by accident.
func (h *HTTPHandlers) ConfirmAnalysis(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "INVALID_BODY", "failed to decode request body", err)
		return
	}
	if req.CaseID == "" {
		h.sendError(w, http.StatusBadRequest, "MISSING_CASE_ID", "case_id is required", nil)
		return
	}

	h.mu.Lock()
	result := h.lastResult
	h.mu.Unlock()
	if result == nil {
		h.sendError(w, http.StatusConflict, "NO_ANALYSIS", "no analysis result to confirm", nil)
		return
	}

	if err := h.graph.PersistGraph(r.Context(), req.CaseID, result.Entities, result.Edges); err != nil {
		h.metrics.PersistenceErrors.Inc()
		h.sendError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "failed to persist analysis graph", err)
		return
	}

	run := &database.AnalysisRun{
		ID:          result.RunID,
		CaseID:      req.CaseID,
		EntityCount: result.Summary.TotalEntities,
		EdgeCount:   result.Summary.TotalEdges,
		TotalAmount: result.Summary.TotalAmount,
		HighRisk:    result.Summary.HighRiskEntities,
		ConfirmedAt: time.Now().UTC(),
	}
	if err := h.repository.CreateAnalysisRun(r.Context(), run); err != nil {
		h.metrics.PersistenceErrors.Inc()
		h.sendError(w, http.StatusInternalServerError, "PERSISTENCE_FAILED", "failed to record analysis run", err)
		return
	}

	h.metrics.AnalysesConfirmedTotal.Inc()

	if err := h.producer.PublishAnalysisEvent(r.Context(), kafka.AnalysisEvent{
		EventType:    kafka.EventAnalysisConfirmed,
		RunID:        result.RunID,
		CaseID:       req.CaseID,
		EntityCount:  result.Summary.TotalEntities,
		EdgeCount:    result.Summary.TotalEdges,
		HighRisk:     result.Summary.HighRiskEntities,
		SuspectCount: result.Summary.SuspectCount,
	}); err != nil {
		h.logger.Error("failed to publish confirmation event", "run_id", result.RunID, "error", err)
		h.metrics.KafkaErrors.Inc()
	}

	h.mu.Lock()
	h.lastResult = nil
	h.mu.Unlock()

	h.logger.Info("analysis confirmed",
		"run_id", result.RunID,
		"case_id", req.CaseID,
		"entities", result.Summary.TotalEntities,
		"edges", result.Summary.TotalEdges)

	h.sendJSON(w, http.StatusOK, map[string]any{
		"run_id":  result.RunID,
		"case_id": req.CaseID,
		"status":  "confirmed",
	})
}

// HealthCheck handles health check requests.
func (h *HTTPHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
	})
}

// ReadinessCheck handles readiness check requests.
func (h *HTTPHandlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck handles liveness check requests.
func (h *HTTPHandlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]any{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// blockingWarnings collects unresolved warnings per blocked file so a 409
// response tells the investigator exactly what to fix.
func (h *HTTPHandlers) blockingWarnings() map[string][]classify.FieldWarning {
	blocked := make(map[string][]classify.FieldWarning)
	for _, f := range h.batch.Files() {
		if f.Status == batch.StatusError {
			blocked[f.Name] = f.Warnings
		}
	}
	return blocked
}

func (h *HTTPHandlers) sendJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *HTTPHandlers) sendError(w http.ResponseWriter, statusCode int, code, message string, err error) {
	h.logger.Error("http request failed",
		"status_code", statusCode,
		"code", code,
		"message", message,
		"error", err)

	resp := ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	}
	if err != nil {
		resp.Error = fmt.Sprintf("%s: %v", message, err)
	}

	h.sendJSON(w, statusCode, resp)
}
