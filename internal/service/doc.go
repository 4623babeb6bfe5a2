// Package service implements business logic for the wanlens application.
//
// TopologyService coordinates the HTTP handlers, the snapshot sources, the
// correlator and the run history repository. A correlation pass is triggered
// by the periodic refresh loop, a file watcher, an API refresh or an upload,
// and always follows the same steps:
//
//   - fetch (or receive) the serviceability, telemetry and IS-IS documents
//   - correlate them into a domain.Result
//   - store the result as a run and prune old runs
//   - swap the in-memory latest result and drop cached path graphs
//   - publish an event for connected SSE clients
//
// Path queries are served from per-strategy graphs built lazily from the
// latest result.
//
// # Event System
//
// Services publish events via EventBus for real-time updates to connected
// clients via Server-Sent Events (SSE).
package service
