// Package domain defines the core types of wanlens, a WAN link correlation
// and path analysis service.
//
// # Core Types
//
// Link is the reconciled record for one declared WAN link. It merges the
// declared (serviceability) view of the link with measured latency
// (telemetry) and the routing protocol's view (IS-IS adjacency metrics).
//
// Location is a site with valid coordinates; Endpoint is one resolved side
// of a link.
//
// Result is the output of one correlation pass: the topology, the locations,
// a Summary of classifications and fleet BandwidthStats.
//
// # Classification
//
// Every link carries two independent classifications:
//
// HealthStatus is telemetry-first. Missing telemetry dominates missing IS-IS,
// which dominates drift between measured and declared latency.
//
// DataCompleteness is symmetric and only records which optional sources
// contributed.
//
// # Filtering
//
// FilterCriteria selects links by health, completeness, bandwidth tier and
// location for display. Filtering never changes the summary of a result.
package domain
