package health

import "context"

// DBPinger checks journal database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// DetectorChecker checks descriptor source readiness.
type DetectorChecker interface {
	Ready(ctx context.Context) error
}

// GatewayChecker checks match gateway availability.
type GatewayChecker interface {
	HealthCheck(ctx context.Context) error
}
