// Package codec decodes the three network snapshot documents and exports
// correlation results.
//
// Snapshot documents are decoded once, at the boundary, into structs whose
// optional fields are pointers or Opt* wrappers. A field that is missing, null
// or of the wrong type decodes as "absent" instead of failing the document, so
// the correlator can apply its skip-on-missing-data policy. Only a document
// that is not JSON at all, or that violates the structural schema, is
// rejected with an *InputError.
package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"wanlens/internal/domain"
)

// Document names a snapshot document kind
type Document string

const (
	DocServiceability Document = "serviceability"
	DocTelemetry      Document = "telemetry"
	DocISIS           Document = "isis"
)

// InputError reports a document that could not be accepted
type InputError struct {
	Document Document
	Details  []string
	Err      error
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("invalid %s document", e.Document)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is, or wraps, an *InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// Snapshot bundles the raw documents for one correlation pass.
// Telemetry and ISIS may be empty; serviceability is required.
type Snapshot struct {
	Serviceability []byte
	Telemetry      []byte
	ISIS           []byte
}

// Decoded holds the parsed documents of a snapshot
type Decoded struct {
	Serviceability *ServiceabilityDocument
	Telemetry      *TelemetryDocument
	ISIS           *ISISDocument
}

// DecodeSnapshot validates and decodes every document of a snapshot
func DecodeSnapshot(s Snapshot) (*Decoded, error) {
	if len(strings.TrimSpace(string(s.Serviceability))) == 0 {
		return nil, &InputError{Document: DocServiceability, Err: errors.New("document is empty")}
	}

	svc, err := DecodeServiceability(s.Serviceability)
	if err != nil {
		return nil, err
	}

	out := &Decoded{
		Serviceability: svc,
		Telemetry:      &TelemetryDocument{},
		ISIS:           &ISISDocument{},
	}

	if len(strings.TrimSpace(string(s.Telemetry))) > 0 {
		if out.Telemetry, err = DecodeTelemetry(s.Telemetry); err != nil {
			return nil, err
		}
	}
	if len(strings.TrimSpace(string(s.ISIS))) > 0 {
		if out.ISIS, err = DecodeISIS(s.ISIS); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Exporter writes a correlation result in some format
type Exporter interface {
	Export(result *domain.Result, w io.Writer) error
	Format() string
}

// ExporterFor returns the exporter registered for format
func ExporterFor(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// Importer reads a result written by the matching Exporter
type Importer interface {
	Parse(r io.Reader) (*domain.Result, error)
	Format() string
}

// ImporterFor returns the importer for format, or for a file name whose
// extension names the format
func ImporterFor(format string) (Importer, error) {
	name := format
	if ext := filepath.Ext(format); ext != "" {
		name = ext[1:]
	}
	switch strings.ToLower(name) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported import format %q", format)
}
