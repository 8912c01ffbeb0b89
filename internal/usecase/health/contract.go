package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ReasoningChecker checks reasoning service availability.
type ReasoningChecker interface {
	HealthCheck(ctx context.Context) error
}
