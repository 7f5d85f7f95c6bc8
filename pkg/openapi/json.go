package openapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Content types for the two serializations.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeYAML = "application/yaml; charset=utf-8"
)

// MarshalJSON serializes the spec to indented JSON bytes.
func MarshalJSON(spec *Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// MarshalYAML serializes the spec to YAML. The YAML is derived from the JSON
// encoding so field names and omission rules match.
func MarshalYAML(spec *Spec) ([]byte, error) {
	data, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(data)
}

// WriteFile serializes the spec to filename, as YAML for .yaml and .yml
// extensions and JSON otherwise.
func WriteFile(spec *Spec, filename string) error {
	marshal := MarshalJSON
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		marshal = MarshalYAML
	}

	data, err := marshal(spec)
	if err != nil {
		return fmt.Errorf("marshal spec: %w", err)
	}

	return os.WriteFile(filename, data, 0644)
}
