package domain

import "time"

// Summary counts links per health status
type Summary struct {
	TotalLinks       int                `json:"total_links"`
	Healthy          int                `json:"healthy"`
	DriftHigh        int                `json:"drift_high"`
	MissingTelemetry int                `json:"missing_telemetry"`
	MissingISIS      int                `json:"missing_isis"`
	Completeness     CompletenessCounts `json:"data_completeness"`
	SkippedLinks     int                `json:"skipped_links"`
}

// CompletenessCounts counts links per data completeness value
type CompletenessCounts struct {
	Complete         int `json:"complete"`
	MissingISIS      int `json:"missing_isis"`
	MissingTelemetry int `json:"missing_telemetry"`
	MissingBoth      int `json:"missing_both"`
}

// BandwidthStats summarizes fleet capacity over links with a known bandwidth
type BandwidthStats struct {
	TotalCapacityGbps    float64               `json:"total_capacity_gbps"`
	AverageBandwidthGbps float64               `json:"average_bandwidth_gbps"`
	LinksWithBandwidth   int                   `json:"links_with_bandwidth"`
	Distribution         map[BandwidthTier]int `json:"distribution"`
	LinksByTier          map[BandwidthTier]int `json:"links_by_tier"`
}

// Result is the output of one correlation pass
type Result struct {
	GeneratedAt    time.Time      `json:"generated_at"`
	Topology       []Link         `json:"topology"`
	Locations      []Location     `json:"locations"`
	Summary        Summary        `json:"summary"`
	BandwidthStats BandwidthStats `json:"bandwidth_stats"`
}

// Summarize counts health and completeness classifications over links
func Summarize(links []Link, skipped int) Summary {
	s := Summary{TotalLinks: len(links), SkippedLinks: skipped}
	for i := range links {
		switch links[i].HealthStatus {
		case HealthHealthy:
			s.Healthy++
		case HealthDriftHigh:
			s.DriftHigh++
		case HealthMissingTelemetry:
			s.MissingTelemetry++
		case HealthMissingISIS:
			s.MissingISIS++
		}
		switch links[i].DataCompleteness {
		case CompletenessComplete:
			s.Completeness.Complete++
		case CompletenessMissingISIS:
			s.Completeness.MissingISIS++
		case CompletenessMissingTelemetry:
			s.Completeness.MissingTelemetry++
		case CompletenessMissingBoth:
			s.Completeness.MissingBoth++
		}
	}
	return s
}

// Filter returns a copy of the result whose topology only holds links matching criteria.
// Summary and bandwidth stats describe the full pass and are left untouched.
func (r *Result) Filter(criteria FilterCriteria) *Result {
	out := *r
	out.Topology = make([]Link, 0, len(r.Topology))
	for i := range r.Topology {
		if criteria.Matches(&r.Topology[i]) {
			out.Topology = append(out.Topology, r.Topology[i])
		}
	}
	return &out
}
