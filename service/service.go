package service

import "context"

// Service is an interface for all services that are run by the app for its
// whole lifetime.
type Service interface {
	// Run the Service until the given context.Context is done. A returned error
	// stops all other services, too.
	Run(ctx context.Context) error
}
