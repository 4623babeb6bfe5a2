package correlate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wanlens/internal/bandwidth"
	"wanlens/internal/domain"
)

func linkWithBandwidth(gbps *float64) domain.Link {
	return domain.Link{BandwidthGbps: gbps, BandwidthTier: bandwidth.Tier(gbps)}
}

func TestAggregateBandwidth(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	var links []domain.Link
	for i := 0; i < 69; i++ {
		links = append(links, linkWithBandwidth(f(10)))
	}
	links = append(links, linkWithBandwidth(f(50)))
	for i := 0; i < 17; i++ {
		links = append(links, linkWithBandwidth(f(100)))
	}
	links = append(links, linkWithBandwidth(f(200)))
	links = append(links, linkWithBandwidth(nil), linkWithBandwidth(nil))

	stats := AggregateBandwidth(links)

	assert.InDelta(t, 2640.0, stats.TotalCapacityGbps, 1e-9)
	assert.InDelta(t, 30.0, stats.AverageBandwidthGbps, 1e-9)
	assert.Equal(t, 88, stats.LinksWithBandwidth)
	want := map[domain.BandwidthTier]int{10: 69, 50: 1, 100: 17, 200: 1}
	assert.Equal(t, want, stats.Distribution)
	assert.Equal(t, want, stats.LinksByTier)
}

func TestAggregateBandwidth_Empty(t *testing.T) {
	for name, links := range map[string][]domain.Link{
		"nil":          nil,
		"no bandwidth": {linkWithBandwidth(nil)},
	} {
		t.Run(name, func(t *testing.T) {
			stats := AggregateBandwidth(links)
			assert.Zero(t, stats.TotalCapacityGbps)
			assert.Zero(t, stats.AverageBandwidthGbps)
			assert.NotNil(t, stats.Distribution)
			assert.Empty(t, stats.Distribution)
			assert.Empty(t, stats.LinksByTier)
		})
	}
}
