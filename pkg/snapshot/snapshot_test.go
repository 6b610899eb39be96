package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sofarbridge/sofarbridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()

	records := []types.StationRecord{
		{
			"id":    types.Str("S1"),
			"power": types.Number(1200),
		},
	}

	path, err := Write(dir, records)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, Filename), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	// pretty-printed for humans
	assert.Contains(t, string(b), "\n  ")

	var got []types.StationRecord
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "S1", got[0].ID())
	assert.Equal(t, 1200.0, got[0]["power"].Float64())
}

func TestWriteBadDir(t *testing.T) {
	_, err := Write(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)
}
