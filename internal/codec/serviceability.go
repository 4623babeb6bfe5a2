package codec

import (
	"encoding/json"
	"fmt"
)

// ServiceabilityDocument is the declared inventory: locations, devices and
// links, each keyed by primary key.
type ServiceabilityDocument struct {
	Locations ObjectMap[LocationRecord] `json:"locations"`
	Devices   ObjectMap[DeviceRecord]   `json:"devices"`
	Links     ObjectMap[LinkRecord]     `json:"links"`
}

// LocationRecord is one entry of the serviceability locations map
type LocationRecord struct {
	Lat     OptFloat  `json:"lat"`
	Lng     OptFloat  `json:"lng"`
	Code    OptString `json:"code"`
	Name    OptString `json:"name"`
	Country OptString `json:"country"`
}

// DeviceRecord is one entry of the serviceability devices map
type DeviceRecord struct {
	Code       OptString `json:"code"`
	LocationPK OptString `json:"location_pk"`
}

// LinkRecord is one entry of the serviceability links map.
// Bandwidth is kept raw because it may be a bps number or a string like "100GE".
type LinkRecord struct {
	Code           OptString `json:"code"`
	DelayNs        OptFloat  `json:"delay_ns"`
	Bandwidth      RawValue  `json:"bandwidth"`
	TunnelNet      OptString `json:"tunnel_net"`
	SideAIfaceName OptString `json:"side_a_iface_name"`
	SideZIfaceName OptString `json:"side_z_iface_name"`
}

// DecodeServiceability validates and decodes a serviceability document
func DecodeServiceability(data []byte) (*ServiceabilityDocument, error) {
	if err := Validate(DocServiceability, data); err != nil {
		return nil, err
	}

	var doc ServiceabilityDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &InputError{Document: DocServiceability, Err: fmt.Errorf("decode: %w", err)}
	}
	return &doc, nil
}
