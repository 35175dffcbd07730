// Package http implements the REST handlers of the visualization API.
// Handlers stay thin: they parse query strings and bodies, call the
// pipeline service and render JSON or CSV. Every error goes through the
// shared RFC 7807 error handler.
//
// # Endpoints
//
//	GET  /api/series?outer=2015&outer=2016[&format=csv]
//	GET  /api/choropleth[?format=csv]
//	GET  /api/drilldown?outer=2015&inner=7[&limit=5]
//	POST /api/drilldown {"outer":2015,"inner":7,"limit":5}
//	GET  /api/stats
//	GET  /api/health, /api/health/ready, /api/health/live
//	POST /api/logs
//
// Handlers depend on PipelineServiceInterface so tests can substitute a
// testify mock.
package http
