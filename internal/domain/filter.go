package domain

// FilterCriteria selects links for display. An empty set means "show all"
// for that dimension; non-empty sets are combined with AND across dimensions.
type FilterCriteria struct {
	Health       map[HealthStatus]struct{}
	Completeness map[DataCompleteness]struct{}
	Tiers        map[BandwidthTier]struct{}
	Locations    map[string]struct{}
}

// NewFilterCriteria builds criteria from plain slices
func NewFilterCriteria(health []HealthStatus, completeness []DataCompleteness, tiers []BandwidthTier, locations []string) FilterCriteria {
	c := FilterCriteria{}
	if len(health) > 0 {
		c.Health = make(map[HealthStatus]struct{}, len(health))
		for _, h := range health {
			c.Health[h] = struct{}{}
		}
	}
	if len(completeness) > 0 {
		c.Completeness = make(map[DataCompleteness]struct{}, len(completeness))
		for _, dc := range completeness {
			c.Completeness[dc] = struct{}{}
		}
	}
	if len(tiers) > 0 {
		c.Tiers = make(map[BandwidthTier]struct{}, len(tiers))
		for _, t := range tiers {
			c.Tiers[t] = struct{}{}
		}
	}
	if len(locations) > 0 {
		c.Locations = make(map[string]struct{}, len(locations))
		for _, l := range locations {
			c.Locations[l] = struct{}{}
		}
	}
	return c
}

// IsEmpty reports whether the criteria match every link
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Health) == 0 && len(c.Completeness) == 0 && len(c.Tiers) == 0 && len(c.Locations) == 0
}

// Matches reports whether link passes the criteria.
// A location filter matches when either endpoint is at one of the locations.
func (c FilterCriteria) Matches(link *Link) bool {
	if len(c.Health) > 0 {
		if _, ok := c.Health[link.HealthStatus]; !ok {
			return false
		}
	}
	if len(c.Completeness) > 0 {
		if _, ok := c.Completeness[link.DataCompleteness]; !ok {
			return false
		}
	}
	if len(c.Tiers) > 0 {
		if _, ok := c.Tiers[link.BandwidthTier]; !ok {
			return false
		}
	}
	if len(c.Locations) > 0 {
		_, a := c.Locations[link.SideA.LocationCode]
		_, z := c.Locations[link.SideZ.LocationCode]
		if !a && !z {
			return false
		}
	}
	return true
}
