// Package snapshot persists the most recent full dataset to disk for
// debugging and offline inspection.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sofarbridge/sofarbridge/pkg/types"
)

// Filename is the fixed name of the snapshot file inside the target
// directory.
const Filename = "sofar_realtime.json"

// Write serializes all station records to <dir>/sofar_realtime.json,
// replacing any previous snapshot. An empty dir means the process working
// directory. Returns the path written.
func Write(dir string, records []types.StationRecord) (string, error) {
	if dir == "" {
		dir = "."
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	path := filepath.Join(dir, Filename)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return path, nil
}
