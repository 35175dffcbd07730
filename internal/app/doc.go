// Package app wires the vizpipe server together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the YAML file and VIZ_* variables
//  2. Initialize logging and OpenTelemetry (Prometheus metrics, optional
//     stdout tracing)
//  3. Create the pipeline service, health service and WebSocket hub
//  4. Build the chi router and the HTTP server
//
// Start loads the datasets and begins serving. A failed load leaves the
// server up but not ready; POST /api/reload or SIGHUP retries it.
//
// # Routes
//
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /api/series, /api/choropleth, /api/drilldown, /api/stats
//	POST /api/drilldown, /api/logs, /api/reload
//	GET  /ws/drilldown
//	GET  /metrics
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: WebSocket sessions are closed, in-flight
// requests complete within Server.ShutdownTimeout and telemetry is flushed.
// Errors are returned to the caller; the package never calls os.Exit.
package app
