package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lukechampine.com/blake3"

	"github.com/smallnest/archviz/graph"
)

// DocumentVersion is the version written into every stored document.
const DocumentVersion = 0

// document is the stored envelope: {"state": {...}, "version": 0}.
type document struct {
	State   graph.PersistedState `json:"state"`
	Version int                  `json:"version"`
}

// Marshal encodes state as a stored document.
func Marshal(state *graph.PersistedState) ([]byte, error) {
	data, err := json.Marshal(document{State: *state, Version: DocumentVersion})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a stored document.
func Unmarshal(data []byte) (*graph.PersistedState, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("unsupported document version %d", doc.Version)
	}
	return &doc.State, nil
}

// Fingerprint returns the BLAKE3 digest of the encoded state as a hex string.
// Equal states have equal fingerprints.
func Fingerprint(state *graph.PersistedState) (string, error) {
	data, err := Marshal(state)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
