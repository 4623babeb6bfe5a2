package correlate

import (
	"log/slog"
	"slices"
	"sort"
	"strings"

	"wanlens/internal/codec"
	"wanlens/internal/domain"
)

// LocationResolver maps device codes to their validated locations
type LocationResolver struct {
	locations map[string]*domain.Location // by location pk
	devices   map[string]domain.Device    // by device code
	order     []string                    // location pks sorted by code then pk
}

// NewLocationResolver builds the resolver from a serviceability document.
// Locations with missing or out-of-range coordinates are dropped, and so is
// every device situated at them.
func NewLocationResolver(doc *codec.ServiceabilityDocument, logger *slog.Logger) *LocationResolver {
	if logger == nil {
		logger = slog.Default()
	}

	r := &LocationResolver{
		locations: make(map[string]*domain.Location, len(doc.Locations)),
		devices:   make(map[string]domain.Device, len(doc.Devices)),
	}

	for _, pk := range doc.Locations.Keys() {
		rec := doc.Locations[pk]
		if !rec.Lat.Valid || !rec.Lng.Valid || !domain.ValidCoordinates(rec.Lat.Value, rec.Lng.Value) {
			logger.Debug("dropping location without valid coordinates", "location_pk", pk)
			continue
		}
		r.locations[pk] = &domain.Location{
			PK:      pk,
			Code:    rec.Code.Or(pk),
			Name:    rec.Name.Or(rec.Code.Or(pk)),
			Lat:     rec.Lat.Value,
			Lng:     rec.Lng.Value,
			Country: rec.Country.Value,
			Devices: []string{},
		}
	}

	for _, pk := range doc.Devices.Keys() {
		rec := doc.Devices[pk]
		code := strings.TrimSpace(rec.Code.Value)
		if code == "" {
			continue
		}
		loc, ok := r.locations[rec.LocationPK.Value]
		if !ok {
			continue
		}
		if _, dup := r.devices[code]; dup {
			logger.Warn("duplicate device code", "code", code, "device_pk", pk)
			continue
		}
		r.devices[code] = domain.Device{PK: pk, Code: code, LocationPK: loc.PK}
		loc.Devices = append(loc.Devices, code)
	}

	r.order = make([]string, 0, len(r.locations))
	for pk, loc := range r.locations {
		sort.Strings(loc.Devices)
		r.order = append(r.order, pk)
	}
	sort.Slice(r.order, func(i, j int) bool {
		a, b := r.locations[r.order[i]], r.locations[r.order[j]]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.PK < b.PK
	})

	return r
}

// Resolve returns the location of a device
func (r *LocationResolver) Resolve(deviceCode string) (*domain.Location, bool) {
	dev, ok := r.devices[deviceCode]
	if !ok {
		return nil, false
	}
	return r.locations[dev.LocationPK], true
}

// Device returns the resolved device with the given code
func (r *LocationResolver) Device(code string) (domain.Device, bool) {
	dev, ok := r.devices[code]
	return dev, ok
}

// Locations returns copies of all valid locations sorted by code
func (r *LocationResolver) Locations() []domain.Location {
	out := make([]domain.Location, 0, len(r.order))
	for _, pk := range r.order {
		loc := *r.locations[pk]
		loc.Devices = slices.Clone(loc.Devices)
		out = append(out, loc)
	}
	return out
}
