// Package bandwidth normalizes link capacity values into Gbps and tiers.
//
// Serviceability snapshots declare capacity either as a number of bits per
// second or as a free-form label such as "100GE" or "400 Mbps". Everything
// downstream works in Gbps; an unknown capacity is represented by a nil
// pointer and maps to tier 0.
package bandwidth

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"wanlens/internal/domain"
)

// Unit patterns in priority order. Gbps forms are tried before Mbps forms.
var (
	gbpsPattern = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]+)?)\s*(?:gbps|ge|g)$`)
	mbpsPattern = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]+)?)\s*(?:mbps|m)$`)
)

// ParseToGbps converts a capacity value into Gbps.
// Numbers are taken as bits per second. Strings must carry a G/GE/Gbps or
// M/Mbps unit. Returns nil for anything it cannot interpret.
func ParseToGbps(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return bpsToGbps(v)
	case float32:
		return bpsToGbps(float64(v))
	case int:
		return bpsToGbps(float64(v))
	case int64:
		return bpsToGbps(float64(v))
	case uint64:
		return bpsToGbps(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return bpsToGbps(f)
	case string:
		return ParseString(v)
	case *string:
		if v == nil {
			return nil
		}
		return ParseString(*v)
	}
	return nil
}

// ParseString parses a capacity label such as "100GE", "2.5G" or "1000 Mbps"
func ParseString(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if m := gbpsPattern.FindStringSubmatch(s); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		return &f
	}
	if m := mbpsPattern.FindStringSubmatch(s); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil
		}
		g := f / 1000
		return &g
	}
	return nil
}

func bpsToGbps(bps float64) *float64 {
	if math.IsNaN(bps) || math.IsInf(bps, 0) {
		return nil
	}
	g := bps / 1e9
	return &g
}

// Format renders a capacity for display
func Format(gbps *float64) string {
	if gbps == nil {
		return "Unknown"
	}
	if *gbps >= 1 {
		return formatNumber(*gbps) + " Gbps"
	}
	return formatNumber(*gbps*1000) + " Mbps"
}

func formatNumber(f float64) string {
	// Trim float noise such as 0.1*1000 = 100.00000000000001
	rounded := math.Round(f*1000) / 1000
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Tier buckets a capacity. The lower edge of each bucket is inclusive.
func Tier(gbps *float64) domain.BandwidthTier {
	if gbps == nil {
		return domain.TierUnknown
	}
	switch g := *gbps; {
	case g < 50:
		return domain.Tier10
	case g < 100:
		return domain.Tier50
	case g < 200:
		return domain.Tier100
	default:
		return domain.Tier200
	}
}

// ArcWidth is the map arc stroke width used for a capacity
func ArcWidth(gbps *float64) int {
	return TierArcWidth(Tier(gbps))
}

// TierArcWidth maps a tier to its arc stroke width
func TierArcWidth(tier domain.BandwidthTier) int {
	switch tier {
	case domain.Tier50:
		return 5
	case domain.Tier100:
		return 8
	case domain.Tier200:
		return 10
	default:
		return 3
	}
}
