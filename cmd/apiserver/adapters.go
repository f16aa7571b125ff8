package main

import (
	"github.com/turtacn/LegisGraph/internal/bootstrap"
	grpcserver "github.com/turtacn/LegisGraph/internal/interfaces/grpc"
	"github.com/turtacn/LegisGraph/internal/interfaces/http/handlers"
)

// Adapters from the bootstrap checks to the checker interfaces of each
// transport.

func httpCheckers(checks []bootstrap.Check) []handlers.HealthChecker {
	out := make([]handlers.HealthChecker, 0, len(checks))
	for _, c := range checks {
		out = append(out, c)
	}
	return out
}

func grpcCheckers(checks []bootstrap.Check) []grpcserver.HealthChecker {
	out := make([]grpcserver.HealthChecker, 0, len(checks))
	for _, c := range checks {
		out = append(out, c)
	}
	return out
}

//Personal.AI order the ending
