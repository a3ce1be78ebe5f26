package httpx

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/elderberry/agentops/internal/domain"
	"github.com/elderberry/agentops/internal/service"
)

const maxBodyBytes = 1 << 20

type Options struct {
	// AuthToken, when set, is required as a Bearer token on POST endpoints.
	AuthToken string
	Logger    *zap.Logger
}

type apiResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func NewServer(addr string, svc *service.LoggingService, opts Options) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: NewHandler(svc, opts),
	}
}

func NewHandler(svc *service.LoggingService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	h := &handler{svc: svc, token: strings.TrimSpace(opts.AuthToken), log: log.Named("http")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(dashboardPageHTML))
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusOK, svc.Health())
	})

	mux.HandleFunc("POST /api/logging/agent-execution/start", h.write(func(r *http.Request) (any, error) {
		var request service.StartExecutionRequest
		if err := decodeBody(r, &request); err != nil {
			return nil, err
		}
		return svc.StartExecution(request)
	}))
	mux.HandleFunc("POST /api/logging/agent-execution/complete", h.write(func(r *http.Request) (any, error) {
		var request service.CompleteExecutionRequest
		if err := decodeBody(r, &request); err != nil {
			return nil, err
		}
		return svc.CompleteExecution(request)
	}))
	mux.HandleFunc("POST /api/logging/mcp-tool-usage", h.write(func(r *http.Request) (any, error) {
		var request service.RecordToolUsageRequest
		if err := decodeBody(r, &request); err != nil {
			return nil, err
		}
		return svc.RecordToolUsage(request)
	}))
	mux.HandleFunc("POST /api/logging/performance-metric", h.write(func(r *http.Request) (any, error) {
		var request service.RecordMetricRequest
		if err := decodeBody(r, &request); err != nil {
			return nil, err
		}
		return svc.RecordMetric(request)
	}))
	mux.HandleFunc("POST /api/logging/error", h.write(func(r *http.Request) (any, error) {
		var request service.RecordErrorRequest
		if err := decodeBody(r, &request); err != nil {
			return nil, err
		}
		return svc.RecordError(request)
	}))
	mux.HandleFunc("POST /api/logging/session-summary", h.write(func(r *http.Request) (any, error) {
		var request service.RecordSessionSummaryRequest
		if err := decodeBody(r, &request); err != nil {
			return nil, err
		}
		return svc.RecordSessionSummary(request)
	}))

	mux.HandleFunc("GET /api/logging/stats", h.read(func(*http.Request) (any, error) {
		return svc.Stats()
	}))
	mux.HandleFunc("GET /api/logging/executions", h.read(func(r *http.Request) (any, error) {
		query := r.URL.Query()
		limit, err := parseLimit(query.Get("limit"))
		if err != nil {
			return nil, err
		}
		return svc.ListExecutions(domain.ExecutionFilter{
			SessionID:     query.Get("session_id"),
			AgentName:     query.Get("agent_name"),
			Status:        query.Get("status"),
			StartedAfter:  strings.TrimSpace(query.Get("started_after")),
			StartedBefore: strings.TrimSpace(query.Get("started_before")),
			Limit:         limit,
		})
	}))
	mux.HandleFunc("GET /api/logging/executions/{id}", h.read(func(r *http.Request) (any, error) {
		return svc.GetExecution(r.PathValue("id"))
	}))
	mux.HandleFunc("GET /api/logging/errors", h.read(func(r *http.Request) (any, error) {
		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			return nil, err
		}
		return svc.ListErrors(limit)
	}))
	mux.HandleFunc("GET /api/logging/sessions", h.read(func(*http.Request) (any, error) {
		return svc.ListSessions()
	}))

	return otelhttp.NewHandler(mux, "agentops.http")
}

type handler struct {
	svc   *service.LoggingService
	token string
	log   *zap.Logger
}

// write wraps a POST endpoint: auth, {success, error?, data} envelope.
func (h *handler) write(fn func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.authorized(r) {
			h.writeJSON(w, http.StatusUnauthorized, apiResponse{Error: "invalid authentication token"})
			return
		}
		data, err := fn(r)
		if err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				h.log.Error("logging write failed", zap.String("path", r.URL.Path), zap.Error(err))
			}
			h.writeJSON(w, status, apiResponse{Error: errorMessage(err)})
			return
		}
		h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: data})
	}
}

func (h *handler) read(fn func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fn(r)
		if err != nil {
			h.writeJSON(w, statusFor(err), map[string]any{"error": errorMessage(err)})
			return
		}
		h.writeJSON(w, http.StatusOK, data)
	}
}

func (h *handler) authorized(r *http.Request) bool {
	if h.token == "" {
		return true
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return subtle.ConstantTimeCompare([]byte(raw), []byte(h.token)) == 1
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn("http json encode error", zap.Error(err))
	}
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.InvalidArgument("request body is required")
		}
		return domain.InvalidArgument("request body must be valid JSON: " + err.Error())
	}
	return nil
}

func parseLimit(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed < 0 {
		return 0, domain.InvalidArgument("limit must be non-negative int64")
	}
	return parsed, nil
}

func statusFor(err error) int {
	switch domain.CodeOf(err) {
	case domain.CodeInvalidArgument:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeFailedPrecondition:
		return http.StatusConflict
	case domain.CodeUnauthenticated:
		return http.StatusUnauthorized
	case domain.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	if appErr, ok := domain.AsAppError(err); ok {
		if appErr.Code == domain.CodeInternal {
			return "internal error"
		}
		return appErr.Message
	}
	return "internal error"
}
