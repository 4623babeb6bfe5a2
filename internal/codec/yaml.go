package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"wanlens/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML export of correlation results. Field names follow
// the JSON wire contract, so the result is first rendered to JSON and then
// re-emitted as block-style YAML.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse reads a previously exported YAML result
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Result, error) {
	var doc any
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML: %w", err)
	}

	var result domain.Result
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}

// Export writes the result as YAML
func (c *YAMLCodec) Export(result *domain.Result, w io.Writer) error {
	node, err := toYAMLNode(result)
	if err != nil {
		return err
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}

// toYAMLNode renders v through its JSON encoding so json tags and custom
// marshalers apply, then clears the flow styles JSON input produces.
func toYAMLNode(v any) (*yaml.Node, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}

	var node yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(b)).Decode(&node); err != nil {
		return nil, fmt.Errorf("failed to convert JSON to YAML: %w", err)
	}
	resetStyle(&node)
	return &node, nil
}

func resetStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		resetStyle(c)
	}
}
