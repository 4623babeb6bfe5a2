package codec

import (
	"encoding/json"
	"fmt"
)

// TelemetryDocument carries measured round-trip latency samples per link
type TelemetryDocument struct {
	Samples ObjectList[LatencySamples] `json:"device_latency_samples"`
}

// LatencySamples is the sample set reported for one link.
// Non-numeric samples decode as absent and are dropped by ByLink.
type LatencySamples struct {
	LinkPK  OptString  `json:"link_pk"`
	Samples SampleList `json:"samples"`
}

// SampleList is a list of samples; anything other than an array decodes empty
type SampleList []OptFloat

// UnmarshalJSON implements json.Unmarshaler
func (l *SampleList) UnmarshalJSON(data []byte) error {
	var items []OptFloat
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	*l = items
	return nil
}

// DecodeTelemetry validates and decodes a telemetry document
func DecodeTelemetry(data []byte) (*TelemetryDocument, error) {
	if err := Validate(DocTelemetry, data); err != nil {
		return nil, err
	}

	var doc TelemetryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &InputError{Document: DocTelemetry, Err: fmt.Errorf("decode: %w", err)}
	}
	return &doc, nil
}

// ByLink indexes samples by link primary key. Repeated entries for the
// same link are concatenated in document order.
func (d *TelemetryDocument) ByLink() map[string][]float64 {
	out := make(map[string][]float64, len(d.Samples))
	for _, entry := range d.Samples {
		if !entry.LinkPK.Valid || entry.LinkPK.Value == "" {
			continue
		}
		for _, s := range entry.Samples {
			if s.Valid {
				out[entry.LinkPK.Value] = append(out[entry.LinkPK.Value], s.Value)
			}
		}
	}
	return out
}
