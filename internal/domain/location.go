package domain

// Device is a network device identified by its code
type Device struct {
	PK         string `json:"pk,omitempty"`
	Code       string `json:"code"`
	LocationPK string `json:"location_pk"`
}

// Location is a site with validated coordinates
type Location struct {
	PK      string   `json:"pk"`
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Country string   `json:"country,omitempty"`
	Devices []string `json:"devices"`
}

// ValidCoordinates reports whether lat/lng fall within [-90,90] and [-180,180]
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Endpoint builds the link endpoint for a device situated at this location
func (l *Location) Endpoint(deviceCode, ifaceName string) Endpoint {
	return Endpoint{
		DeviceCode:    deviceCode,
		LocationPK:    l.PK,
		LocationCode:  l.Code,
		LocationName:  l.Name,
		Country:       l.Country,
		Lat:           l.Lat,
		Lng:           l.Lng,
		InterfaceName: ifaceName,
	}
}
