package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
	"github.com/veridian-id/livegate/internal/usecase/attendance"
	enrolluc "github.com/veridian-id/livegate/internal/usecase/enroll"
	healthuc "github.com/veridian-id/livegate/internal/usecase/health"
)

const defaultHistoryLimit = 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the operator-facing HTTP API.
type Server struct {
	attendance    *attendance.Service
	enroll        *enrolluc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	validate      *validator.Validate
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	att *attendance.Service,
	enroll *enrolluc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		attendance: att,
		enroll:     enroll,
		health:     health,
		logger:     logger,
		validate:   validator.New(),
	}
	s.errorHandlers = []errorHandler{
		conflictHandler,
		sentinelHandler(domain.ErrCameraUnavailable, http.StatusServiceUnavailable, CodeCameraUnavailable),
		sentinelHandler(domain.ErrModelNotReady, http.StatusServiceUnavailable, CodeModelNotReady),
		sentinelHandler(domain.ErrAttemptInProgress, http.StatusConflict, CodeAttemptInProgress),
		sentinelHandler(domain.ErrGatewayUnavailable, http.StatusBadGateway, CodeGatewayUnavailable),
		sentinelHandler(domain.ErrAttemptNotFound, http.StatusNotFound, CodeAttemptNotFound),
		sentinelHandler(domain.ErrNoPendingCandidate, http.StatusNotFound, CodeNoPendingCandidate),
		sentinelHandler(domain.ErrFaceNotDetected, http.StatusUnprocessableEntity, CodeBadRequest),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/attendance", s.BeginAttendance)
	r.Post("/api/v1/attendance/{attemptID}/confirm", s.ConfirmAttendance)
	r.Post("/api/v1/attendance/{attemptID}/reject", s.RejectAttendance)
	r.Post("/api/v1/enrollments", s.CreateEnrollment)
	r.Get("/api/v1/attempts", s.ListAttempts)
	r.Get("/health", s.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// BeginAttendance handles POST /api/v1/attendance: one full liveness +
// matching run against whoever is in front of the camera.
func (s *Server) BeginAttendance(w http.ResponseWriter, r *http.Request) {
	attempt, err := s.attendance.Begin(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptToDTO(attempt))
}

// ConfirmAttendance handles POST /api/v1/attendance/{attemptID}/confirm.
func (s *Server) ConfirmAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")
	rec, err := s.attendance.Confirm(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToDTO(rec))
}

// RejectAttendance handles POST /api/v1/attendance/{attemptID}/reject.
func (s *Server) RejectAttendance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "attemptID")
	if err := s.attendance.Reject(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEnrollment handles POST /api/v1/enrollments: a multi-sample capture
// session ending in a gateway registration.
func (s *Server) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	descriptor, err := s.enroll.Enroll(r.Context(), req.IdentityID, req.DisplayName)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, EnrollResponse{
		IdentityID:    req.IdentityID,
		DisplayName:   req.DisplayName,
		DescriptorDim: descriptor.Dim(),
	})
}

// ListAttempts handles GET /api/v1/attempts?limit=N.
func (s *Server) ListAttempts(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if r.URL.Query().Has("limit") {
		if err := runtime.BindQueryParameter("form", true, false, "limit",
			r.URL.Query(), &limit); err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "invalid limit: "+err.Error())
			return
		}
		if limit < 1 || limit > 500 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be between 1 and 500")
			return
		}
	}

	recs, err := s.attendance.History(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]RecordDTO, len(recs))
	for i, rec := range recs {
		items[i] = recordToDTO(rec)
	}
	writeJSON(w, http.StatusOK, AttemptListResponse{Items: items})
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrCameraUnavailable,
		domain.ErrModelNotReady,
		domain.ErrAttemptInProgress,
		domain.ErrFaceNotDetected,
		domain.ErrGatewayUnavailable,
		domain.ErrDuplicateIdentity,
		domain.ErrDuplicateFace,
		domain.ErrAttemptNotFound,
		domain.ErrNoPendingCandidate,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// conflictHandler maps duplicate-enrollment conflicts with their gateway detail.
func conflictHandler(w http.ResponseWriter, err error, msg string) bool {
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		return false
	}
	code := CodeDuplicateIdentity
	if errors.Is(err, domain.ErrDuplicateFace) {
		code = CodeDuplicateFace
	}
	writeError(w, http.StatusConflict, code, conflict.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
