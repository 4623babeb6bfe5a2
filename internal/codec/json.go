package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"wanlens/internal/domain"
)

// JSONCodec handles JSON export of correlation results
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a previously exported result
func (c *JSONCodec) Parse(r io.Reader) (*domain.Result, error) {
	var result domain.Result
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &result, nil
}

// Export writes the result as indented JSON
func (c *JSONCodec) Export(result *domain.Result, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
