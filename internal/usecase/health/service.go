package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks across the journal database, the
// descriptor source, and the match gateway.
type Service struct {
	db       DBPinger
	detector DetectorChecker
	gateway  GatewayChecker
}

// New creates a Service. detector and gateway can be nil.
func New(db DBPinger, detector DetectorChecker, gateway GatewayChecker) *Service {
	return &Service{db: db, detector: detector, gateway: gateway}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.detector != nil {
		if err := s.detector.Ready(ctx); err != nil {
			checks["detector"] = CheckError
		} else {
			checks["detector"] = CheckOK
		}
	}

	if s.gateway != nil {
		if err := s.gateway.HealthCheck(ctx); err != nil {
			checks["gateway"] = CheckError
		} else {
			checks["gateway"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
