package terrain

import (
	"encoding/json"
	"fmt"
	"os"
)

// Encode serializes a precomputed triangle dataset.
func Encode(triangles []Triangle) ([]byte, error) {
	if triangles == nil {
		triangles = []Triangle{}
	}
	return json.Marshal(triangles)
}

// Decode parses a serialized triangle dataset. An empty input is an empty
// dataset.
func Decode(raw []byte) ([]Triangle, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var triangles []Triangle
	if err := json.Unmarshal(raw, &triangles); err != nil {
		return nil, fmt.Errorf("decode triangles: %w", err)
	}
	return triangles, nil
}

// LoadFile reads a triangle dataset written by Encode.
func LoadFile(path string) ([]Triangle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read triangles %s: %w", path, err)
	}
	return Decode(raw)
}
