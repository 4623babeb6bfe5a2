package correlate

import "wanlens/internal/domain"

// AggregateBandwidth summarizes capacity over links with a known bandwidth.
// Tier maps are sparse: tiers without links are omitted.
func AggregateBandwidth(links []domain.Link) domain.BandwidthStats {
	stats := domain.BandwidthStats{
		Distribution: map[domain.BandwidthTier]int{},
		LinksByTier:  map[domain.BandwidthTier]int{},
	}

	for i := range links {
		gbps := links[i].BandwidthGbps
		if gbps == nil {
			continue
		}
		stats.TotalCapacityGbps += *gbps
		stats.LinksWithBandwidth++
		stats.Distribution[links[i].BandwidthTier]++
		stats.LinksByTier[links[i].BandwidthTier]++
	}

	if stats.LinksWithBandwidth > 0 {
		stats.AverageBandwidthGbps = stats.TotalCapacityGbps / float64(stats.LinksWithBandwidth)
	}

	return stats
}
