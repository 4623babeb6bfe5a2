// Package correlate joins the serviceability, telemetry and link-state
// snapshots into per-link health records.
package correlate

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"wanlens/internal/bandwidth"
	"wanlens/internal/codec"
	"wanlens/internal/domain"
	"wanlens/internal/stats"
)

// Skip reasons reported for links dropped from the result
const (
	SkipMalformedCode    = "malformed_code"
	SkipUnresolvedDevice = "unresolved_device"
)

// Options tune a Correlator
type Options struct {
	// DriftThresholdPct defaults to domain.DriftThresholdPct when zero
	DriftThresholdPct float64
	Logger            *slog.Logger
	// Now stamps Result.GeneratedAt; defaults to time.Now
	Now func() time.Time
}

// Correlator turns decoded snapshots into a Result. It holds no state
// between passes and is safe for concurrent use.
type Correlator struct {
	threshold float64
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a correlator
func New(opts Options) *Correlator {
	c := &Correlator{
		threshold: opts.DriftThresholdPct,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if c.threshold <= 0 {
		c.threshold = domain.DriftThresholdPct
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// CorrelateSnapshot decodes the raw documents and correlates them
func (c *Correlator) CorrelateSnapshot(s codec.Snapshot) (*domain.Result, error) {
	docs, err := codec.DecodeSnapshot(s)
	if err != nil {
		return nil, err
	}
	return c.Correlate(docs), nil
}

// Correlate runs one full pass over the decoded documents
func (c *Correlator) Correlate(docs *codec.Decoded) *domain.Result {
	svc := docs.Serviceability
	if svc == nil {
		svc = &codec.ServiceabilityDocument{}
	}
	telemetry := map[string][]float64{}
	if docs.Telemetry != nil {
		telemetry = docs.Telemetry.ByLink()
	}
	isis := BuildIsisIndex(docs.ISIS)
	resolver := NewLocationResolver(svc, c.logger)

	links := make([]domain.Link, 0, len(svc.Links))
	skipped := 0

	for _, pk := range svc.Links.Keys() {
		link, reason := c.correlateLink(pk, svc.Links[pk], resolver, telemetry, isis)
		if reason != "" {
			skipped++
			c.logger.Warn("skipping link", "link_pk", pk, "code", svc.Links[pk].Code.Value, "reason", reason)
			continue
		}
		links = append(links, link)
	}

	sort.SliceStable(links, func(i, j int) bool {
		if links[i].Code != links[j].Code {
			return links[i].Code < links[j].Code
		}
		return links[i].PK < links[j].PK
	})

	result := &domain.Result{
		GeneratedAt:    c.now().UTC(),
		Topology:       links,
		Locations:      resolver.Locations(),
		Summary:        domain.Summarize(links, skipped),
		BandwidthStats: AggregateBandwidth(links),
	}

	c.logger.Info("correlation complete",
		"links", result.Summary.TotalLinks,
		"skipped", skipped,
		"healthy", result.Summary.Healthy,
		"drift_high", result.Summary.DriftHigh,
		"missing_telemetry", result.Summary.MissingTelemetry,
		"missing_isis", result.Summary.MissingISIS,
		"isis_adjacencies", isis.Len(),
	)

	return result
}

func (c *Correlator) correlateLink(pk string, rec codec.LinkRecord, resolver *LocationResolver, telemetry map[string][]float64, isis *IsisIndex) (domain.Link, string) {
	code := strings.TrimSpace(rec.Code.Value)
	devA, devZ, ok := domain.SplitLinkCode(code)
	if !rec.Code.Valid || !ok {
		return domain.Link{}, SkipMalformedCode
	}

	locA, okA := resolver.Resolve(devA)
	locZ, okZ := resolver.Resolve(devZ)
	if !okA || !okZ {
		return domain.Link{}, SkipUnresolvedDevice
	}

	link := domain.Link{
		PK:                pk,
		Code:              devA + ":" + devZ,
		SideA:             locA.Endpoint(devA, rec.SideAIfaceName.Value),
		SideZ:             locZ.Endpoint(devZ, rec.SideZIfaceName.Value),
		TunnelNet:         rec.TunnelNet.Value,
		HasServiceability: true,
	}

	if rec.DelayNs.Valid {
		link.DelayNs = rec.DelayNs.Value
		link.ExpectedDelayUs = rec.DelayNs.Value / 1000
	}

	link.BandwidthGbps = bandwidth.ParseToGbps(rec.Bandwidth.Value)
	link.BandwidthTier = bandwidth.Tier(link.BandwidthGbps)
	link.BandwidthLabel = bandwidth.Format(link.BandwidthGbps)

	if samples := telemetry[pk]; len(samples) > 0 {
		dist := stats.NewDistribution(samples)
		link.MeasuredP50Us = ptr(dist.Median())
		link.MeasuredP90Us = ptr(dist.Percentile(90))
		link.MeasuredP95Us = ptr(dist.Percentile(95))
		link.MeasuredP99Us = ptr(dist.Percentile(99))
		link.SampleCount = dist.Len()
		link.HasTelemetry = true
	}

	if rec.TunnelNet.Valid && rec.TunnelNet.Value != "" {
		link.ISISAddresses = SplitSlash31(rec.TunnelNet.Value)
		if link.ISISAddresses == nil {
			c.logger.Debug("tunnel_net is not an IPv4 /31", "link_pk", pk, "tunnel_net", rec.TunnelNet.Value)
		}
	}
	if metric, ok := isis.Resolve(link.ISISAddresses); ok {
		link.ISISMetric = &metric
		link.HasISIS = true
	}

	link.DriftPct = DriftPct(link.MeasuredP50Us, link.ExpectedDelayUs)
	link.HealthStatus = domain.ClassifyHealthThreshold(link.HasTelemetry, link.HasISIS, link.DriftPct, c.threshold)
	link.DataCompleteness = domain.ClassifyDataCompleteness(link.HasTelemetry, link.HasISIS)

	return link, ""
}

// DriftPct is |measured - expected| / expected * 100, or nil when measured
// is absent or expected is not strictly positive.
func DriftPct(measuredUs *float64, expectedUs float64) *float64 {
	if measuredUs == nil || !(expectedUs > 0) {
		return nil
	}
	return ptr(math.Abs(*measuredUs-expectedUs) / expectedUs * 100)
}

func ptr(f float64) *float64 {
	return &f
}
