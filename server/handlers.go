package server

import (
	"encoding/json"
	"net/http"
	"time"

	"hourtrim/config"
	"hourtrim/core/audio"
	"hourtrim/core/auth"
	"hourtrim/core/errs"
	"hourtrim/core/library"
	"hourtrim/core/report"
	"hourtrim/core/watch"
	"hourtrim/logger"
	"hourtrim/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	cfg     *config.Config
	layout  library.Layout
	creds   auth.CredentialStore
	tokens  *auth.TokenManager
	trimmer *audio.Trimmer
	reports *report.Builder
	trims   repository.TrimRecordRepository
	hub     *watch.Hub
}

// NewAPIHandler 创建新的API处理器. trims and hub may be nil when their
// backends are not configured.
func NewAPIHandler(
	cfg *config.Config,
	creds auth.CredentialStore,
	tokens *auth.TokenManager,
	trimmer *audio.Trimmer,
	reports *report.Builder,
	trims repository.TrimRecordRepository,
	hub *watch.Hub,
) *APIHandler {
	return &APIHandler{
		cfg:     cfg,
		layout:  library.NewLayout(cfg.PublicDir),
		creds:   creds,
		tokens:  tokens,
		trimmer: trimmer,
		reports: reports,
		trims:   trims,
		hub:     hub,
	}
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response", logger.ErrorField(err))
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError converts err into {message} with the mapped status. Server
// errors are logged with their cause but the cause never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	respondError(w, r, err, fallback, false)
}

// writeErrorWithDetail is writeError plus the cause text in the "error" field
// for server errors. Only the trim route uses it.
func writeErrorWithDetail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	respondError(w, r, err, fallback, true)
}

func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string, detail bool) {
	status := errs.Status(err)
	body := errorResponse{Message: errs.Message(err, fallback)}
	if status >= http.StatusInternalServerError {
		if detail {
			body.Error = errs.Detail(err)
		}
		logger.Error(body.Message,
			logger.String("path", r.URL.Path),
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.ErrorField(err))
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body. An empty or malformed body decodes to the
// zero value so that field checks report the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	if r.Body == nil {
		return
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		logger.Debug("decode request body", logger.String("path", r.URL.Path), logger.ErrorField(err))
	}
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeErrorLog logs a failure that happened after the response was committed.
func writeErrorLog(r *http.Request, msg string, err error) {
	logger.Warn(msg,
		logger.String("path", r.URL.Path),
		logger.String("requestId", RequestIDFromContext(r.Context())),
		logger.ErrorField(err))
}
