package codec

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

type schemaEntry struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

var schemas = map[Document]*schemaEntry{
	DocServiceability: {},
	DocTelemetry:      {},
	DocISIS:           {},
}

func getSchema(doc Document) (*gojsonschema.Schema, error) {
	entry, ok := schemas[doc]
	if !ok {
		return nil, fmt.Errorf("no schema for document %q", doc)
	}
	entry.once.Do(func() {
		b, err := schemaFS.ReadFile("schemas/" + string(doc) + ".schema.json")
		if err != nil {
			entry.err = err
			return
		}
		entry.schema, entry.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	})
	return entry.schema, entry.err
}

// Validate checks data against the structural schema of doc. Data that is
// not JSON, or that violates the schema, yields an *InputError.
func Validate(doc Document, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &InputError{Document: doc, Err: fmt.Errorf("malformed JSON: %w", err)}
	}

	schema, err := getSchema(doc)
	if err != nil {
		return fmt.Errorf("loading %s schema: %w", doc, err)
	}

	res, err := schema.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return fmt.Errorf("validating %s document: %w", doc, err)
	}
	if res.Valid() {
		return nil
	}

	details := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		details = append(details, e.String())
	}
	return &InputError{Document: doc, Err: errors.New("schema violation"), Details: details}
}
