package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Default location of the adjacency table inside the link-state database
const (
	DefaultISISVRF      = "default"
	DefaultISISInstance = "1"
	DefaultISISLevel    = "2"
)

// ISISDocument is the output of "show isis database detail" in JSON form
type ISISDocument struct {
	VRFs ObjectMap[ISISVRF] `json:"vrfs"`
}

// ISISVRF holds the IS-IS instances of one VRF
type ISISVRF struct {
	Instances ObjectMap[ISISInstance] `json:"isisInstances"`
}

// ISISInstance holds the per-level databases of one instance
type ISISInstance struct {
	Levels ObjectMap[ISISLevel] `json:"level"`
}

// ISISLevel holds the link-state packets of one level
type ISISLevel struct {
	LSPs LSPList `json:"lsps"`
}

// LSP is one link-state packet
type LSP struct {
	ID        string                   `json:"-"`
	Hostname  ISISHostname             `json:"hostname"`
	Neighbors ObjectList[ISISNeighbor] `json:"neighbors"`
}

// ISISHostname is the dynamic hostname TLV. Some releases emit it as a bare
// string instead of an object.
type ISISHostname struct {
	Name OptString `json:"name"`
}

// UnmarshalJSON implements json.Unmarshaler
func (h *ISISHostname) UnmarshalJSON(data []byte) error {
	*h = ISISHostname{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		return h.Name.UnmarshalJSON(data)
	}
	var obj struct {
		Name OptString `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil
	}
	h.Name = obj.Name
	return nil
}

// ISISNeighbor is one IS reachability entry of an LSP
type ISISNeighbor struct {
	Metric         OptFloat                     `json:"metric"`
	SystemID       OptString                    `json:"systemId"`
	InterfaceAddrs ObjectList[ISISAdjInterface] `json:"adjInterfaceAddresses"`
}

// ISISAdjInterface is one interface address of an adjacency
type ISISAdjInterface struct {
	Address OptString `json:"adjInterfaceAddress"`
}

// LSPList keeps link-state packets in document order. The database may
// encode them as an object keyed by LSP ID or as a plain array; both decode.
// Entries that are not objects are skipped.
type LSPList []LSP

// UnmarshalJSON implements json.Unmarshaler
func (l *LSPList) UnmarshalJSON(data []byte) error {
	*l = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		for _, r := range raw {
			if lsp, ok := decodeLSP(r); ok {
				*l = append(*l, lsp)
			}
		}
	case '{':
		dec := json.NewDecoder(bytes.NewReader(data))
		if _, err := dec.Token(); err != nil {
			return nil
		}
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil
			}
			key, _ := tok.(string)
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil
			}
			if lsp, ok := decodeLSP(raw); ok {
				lsp.ID = key
				*l = append(*l, lsp)
			}
		}
	}
	return nil
}

func decodeLSP(raw json.RawMessage) (LSP, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return LSP{}, false
	}
	var lsp LSP
	if err := json.Unmarshal(raw, &lsp); err != nil {
		return LSP{}, false
	}
	return lsp, true
}

// DecodeISIS validates and decodes a link-state database document
func DecodeISIS(data []byte) (*ISISDocument, error) {
	if err := Validate(DocISIS, data); err != nil {
		return nil, err
	}

	var doc ISISDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &InputError{Document: DocISIS, Err: fmt.Errorf("decode: %w", err)}
	}
	return &doc, nil
}

// LSPs returns the link-state packets at vrf/instance/level, or nil when any
// step of the path is absent.
func (d *ISISDocument) LSPs(vrf, instance, level string) []LSP {
	if d == nil {
		return nil
	}
	v, ok := d.VRFs[vrf]
	if !ok {
		return nil
	}
	inst, ok := v.Instances[instance]
	if !ok {
		return nil
	}
	lvl, ok := inst.Levels[level]
	if !ok {
		return nil
	}
	return lvl.LSPs
}

// DefaultLSPs returns the level-2 packets of instance 1 in the default VRF
func (d *ISISDocument) DefaultLSPs() []LSP {
	return d.LSPs(DefaultISISVRF, DefaultISISInstance, DefaultISISLevel)
}
