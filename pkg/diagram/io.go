package diagram

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Diagram Serialization API
// =============================================================================

// ReadFile reads a diagram snapshot from a JSON file.
func ReadFile(path string) (Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return Diagram{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a diagram snapshot from r.
func Read(r io.Reader) (Diagram, error) {
	var d Diagram
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Diagram{}, fmt.Errorf("decode: %w", err)
	}
	return d, nil
}

// Marshal encodes v as indented JSON. Map keys are sorted by encoding/json,
// so handle maps serialize deterministically.
func Marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile writes v as indented JSON to path with 0644 permissions.
func WriteFile(v any, path string) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
