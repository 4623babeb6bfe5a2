package domain

import "strings"

// HealthStatus is the telemetry-first health classification of a link
type HealthStatus string

const (
	HealthHealthy          HealthStatus = "HEALTHY"
	HealthDriftHigh        HealthStatus = "DRIFT_HIGH"
	HealthMissingTelemetry HealthStatus = "MISSING_TELEMETRY"
	HealthMissingISIS      HealthStatus = "MISSING_ISIS"
)

// HealthStatuses lists every health status in reporting order
var HealthStatuses = []HealthStatus{
	HealthHealthy,
	HealthDriftHigh,
	HealthMissingTelemetry,
	HealthMissingISIS,
}

// Valid reports whether s is one of the known health statuses
func (s HealthStatus) Valid() bool {
	switch s {
	case HealthHealthy, HealthDriftHigh, HealthMissingTelemetry, HealthMissingISIS:
		return true
	}
	return false
}

// DataCompleteness records which sources contributed to a link record.
// Unlike HealthStatus it is symmetric in telemetry and IS-IS.
type DataCompleteness string

const (
	CompletenessComplete         DataCompleteness = "COMPLETE"
	CompletenessMissingISIS      DataCompleteness = "MISSING_ISIS"
	CompletenessMissingTelemetry DataCompleteness = "MISSING_TELEMETRY"
	CompletenessMissingBoth      DataCompleteness = "MISSING_BOTH"
)

// Valid reports whether c is one of the known completeness values
func (c DataCompleteness) Valid() bool {
	switch c {
	case CompletenessComplete, CompletenessMissingISIS, CompletenessMissingTelemetry, CompletenessMissingBoth:
		return true
	}
	return false
}

// BandwidthTier is a discretized capacity bucket in Gbps. Zero means unknown.
type BandwidthTier int

const (
	TierUnknown BandwidthTier = 0
	Tier10      BandwidthTier = 10
	Tier50      BandwidthTier = 50
	Tier100     BandwidthTier = 100
	Tier200     BandwidthTier = 200
)

// BandwidthTiers lists the known tiers in ascending order
var BandwidthTiers = []BandwidthTier{TierUnknown, Tier10, Tier50, Tier100, Tier200}

// Valid reports whether t is one of the known tiers
func (t BandwidthTier) Valid() bool {
	switch t {
	case TierUnknown, Tier10, Tier50, Tier100, Tier200:
		return true
	}
	return false
}

// DriftThresholdPct is the drift percentage at or above which a link is DRIFT_HIGH
const DriftThresholdPct = 10.0

// Endpoint is one resolved side of a link
type Endpoint struct {
	DeviceCode    string  `json:"device_code"`
	LocationPK    string  `json:"location_pk"`
	LocationCode  string  `json:"location_code"`
	LocationName  string  `json:"location_name"`
	Country       string  `json:"country,omitempty"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	InterfaceName string  `json:"iface_name,omitempty"`
}

// Link is the reconciled health record for one declared link.
// It is rebuilt on every correlation pass and never mutated afterwards.
type Link struct {
	PK    string   `json:"link_pk"`
	Code  string   `json:"code"`
	SideA Endpoint `json:"side_a"`
	SideZ Endpoint `json:"side_z"`

	// Serviceability
	DelayNs         float64       `json:"delay_ns"`
	ExpectedDelayUs float64       `json:"expected_delay_us"`
	BandwidthGbps   *float64      `json:"bandwidth_gbps"`
	BandwidthTier   BandwidthTier `json:"bandwidth_tier"`
	BandwidthLabel  string        `json:"bandwidth_label"`
	TunnelNet       string        `json:"tunnel_net,omitempty"`

	// Telemetry
	MeasuredP50Us *float64 `json:"measured_p50_us"`
	MeasuredP90Us *float64 `json:"measured_p90_us"`
	MeasuredP95Us *float64 `json:"measured_p95_us"`
	MeasuredP99Us *float64 `json:"measured_p99_us"`
	SampleCount   int      `json:"sample_count"`

	// IS-IS
	ISISMetric    *uint32  `json:"isis_metric"`
	ISISAddresses []string `json:"isis_addresses,omitempty"`

	DriftPct         *float64         `json:"drift_pct"`
	HealthStatus     HealthStatus     `json:"health_status"`
	DataCompleteness DataCompleteness `json:"data_completeness"`

	HasServiceability bool `json:"has_serviceability"`
	HasTelemetry      bool `json:"has_telemetry"`
	HasISIS           bool `json:"has_isis"`
}

// SplitLinkCode splits a "<deviceA>:<deviceZ>" code into its two device codes.
// ok is false unless there are exactly two non-empty parts.
func SplitLinkCode(code string) (deviceA, deviceZ string, ok bool) {
	parts := strings.Split(code, ":")
	if len(parts) != 2 {
		return "", "", false
	}
	a, z := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if a == "" || z == "" {
		return "", "", false
	}
	return a, z, true
}

// ClassifyHealth derives the health status using DriftThresholdPct.
func ClassifyHealth(hasTelemetry, hasISIS bool, driftPct *float64) HealthStatus {
	return ClassifyHealthThreshold(hasTelemetry, hasISIS, driftPct, DriftThresholdPct)
}

// ClassifyHealthThreshold derives the health status. Evaluation order is fixed:
// missing telemetry dominates missing IS-IS, which dominates drift.
func ClassifyHealthThreshold(hasTelemetry, hasISIS bool, driftPct *float64, thresholdPct float64) HealthStatus {
	switch {
	case !hasTelemetry:
		return HealthMissingTelemetry
	case !hasISIS:
		return HealthMissingISIS
	case driftPct != nil && *driftPct >= thresholdPct:
		return HealthDriftHigh
	default:
		return HealthHealthy
	}
}

// ClassifyDataCompleteness derives completeness from the two optional sources.
// Serviceability is always present for a surviving link.
func ClassifyDataCompleteness(hasTelemetry, hasISIS bool) DataCompleteness {
	switch {
	case hasTelemetry && hasISIS:
		return CompletenessComplete
	case hasTelemetry:
		return CompletenessMissingISIS
	case hasISIS:
		return CompletenessMissingTelemetry
	default:
		return CompletenessMissingBoth
	}
}
