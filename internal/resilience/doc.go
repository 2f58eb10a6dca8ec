// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic to keep the
// pipeline making progress when individual sources or the database misbehave.
//
// The package supports:
//   - Circuit breakers for external calls (newspaper APIs, feeds, database)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.NewCircuitBreaker("guardian", circuitbreaker.DefaultConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchArticleList()
//	})
//
//	retryConfig := retry.SourceFetchConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
