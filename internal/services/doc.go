// Package services implements the business layer between the HTTP and
// WebSocket transports and the pure pipeline operations.
//
// # Services
//
//	- PipelineService: loads the ratings, counts and region datasets in
//	  parallel and answers series, choropleth and drill-down queries
//	- HealthService: liveness, readiness and version information
//
// # Concurrency
//
// Datasets are immutable once loaded. PipelineService.Load builds a complete
// new set and swaps it in under a lock, so queries never observe a partially
// loaded state and run concurrently without further locking.
//
// # Error Handling
//
// Queries before the first successful Load return
// errors.ErrDatasetNotLoaded. Pipeline errors are returned wrapped so that
// errors.Is matches ErrInvalidRecord; invalid requests are AppErrors of
// type VALIDATION. The HTTP error handler maps these to 503, 422 and 400.
package services
