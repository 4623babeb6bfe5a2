// Package handler implements the HTTP API of wanlens.
//
// # Endpoints
//
//	GET  /healthz              liveness and whether a result is loaded
//	GET  /api/topology         latest result, filterable by query parameters
//	GET  /api/summary          summary and bandwidth stats of the latest result
//	POST /api/correlate        correlate an uploaded snapshot
//	POST /api/refresh          fetch documents from the configured sources
//	POST /api/path             cheapest path between two devices
//	GET  /api/runs             run history, newest first
//	GET  /api/runs/{id}        one stored run with its result
//	GET  /api/export/{format}  latest (or ?run=) result as json or yaml
//	GET  /events               Server-Sent Events stream
//	GET  /metrics              Prometheus metrics
//
// Topology filters take comma-separated values: health, completeness, tier
// and location (location codes). Values within a parameter are ORed and
// parameters are ANDed.
//
// # Response Format
//
// Success responses return JSON data with appropriate status codes.
// Error responses return JSON with {error, details} structure.
package handler
