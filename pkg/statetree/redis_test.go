package statetree

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sofarbridge/sofarbridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	// Use a random prefix for isolation
	r := &RedisStore{
		addr:   addr,
		prefix: fmt.Sprintf("test-%d", time.Now().UnixNano()),
	}

	ctx := context.Background()
	require.NoError(t, r.Validate())
	require.NoError(t, r.Init(ctx))
	defer r.Close()

	t.Run("EnsureContainerIdempotent", func(t *testing.T) {
		require.NoError(t, r.EnsureContainer(ctx, "S1", "Roof Array"))
		// second ensure must keep the original name
		require.NoError(t, r.EnsureContainer(ctx, "S1", "Renamed"))

		raw, err := r.client.Get(ctx, r.objectKey("S1")).Bytes()
		require.NoError(t, err)
		var meta containerMeta
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, "channel", meta.Type)
		assert.Equal(t, "Roof Array", meta.Name)
	})

	t.Run("EnsureLeafIdempotent", func(t *testing.T) {
		leaf := types.Leaf{
			Field: "generationPower",
			Name:  "generationPower",
			Type:  types.TypeNumber,
			Role:  types.RoleValue,
			Unit:  "W",
			Read:  true,
		}
		require.NoError(t, r.EnsureLeaf(ctx, "S1", leaf))

		changed := leaf
		changed.Unit = "kW"
		require.NoError(t, r.EnsureLeaf(ctx, "S1", changed))

		raw, err := r.client.Get(ctx, r.objectKey("S1.generationPower")).Bytes()
		require.NoError(t, err)
		var meta leafMeta
		require.NoError(t, json.Unmarshal(raw, &meta))
		assert.Equal(t, "state", meta.Type)
		assert.Equal(t, types.TypeNumber, meta.Common.Type)
		assert.Equal(t, types.RoleValue, meta.Common.Role)
		assert.Equal(t, "W", meta.Common.Unit)
		assert.True(t, meta.Common.Read)
		assert.False(t, meta.Common.Write)
	})

	t.Run("LeafMetadataKeepsInferredType", func(t *testing.T) {
		leaf := types.Leaf{
			Field: "onlineFlag",
			Name:  "onlineFlag",
			Type:  types.TypeBoolean,
			Role:  types.RoleIndicator,
			Read:  true,
		}
		require.NoError(t, r.EnsureLeaf(ctx, "S1", leaf))

		raw, err := r.client.Get(ctx, r.objectKey("S1.onlineFlag")).Bytes()
		require.NoError(t, err)
		var decoded map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.JSONEq(t, `"state"`, string(decoded["type"]))
		// the inferred value type lives inside common, not on the wrapper
		assert.Contains(t, string(decoded["common"]), `"type":"boolean"`)
	})

	t.Run("WriteValueOverwrites", func(t *testing.T) {
		var v types.Value
		require.NoError(t, v.UnmarshalJSON([]byte("1234.5")))
		require.NoError(t, r.WriteValue(ctx, "S1", "generationPower", v))

		var v2 types.Value
		require.NoError(t, v2.UnmarshalJSON([]byte("99")))
		require.NoError(t, r.WriteValue(ctx, "S1", "generationPower", v2))

		raw, err := r.client.Get(ctx, r.stateKey("S1.generationPower")).Bytes()
		require.NoError(t, err)
		var upd stateUpdate
		require.NoError(t, json.Unmarshal(raw, &upd))
		assert.True(t, upd.Ack)
		assert.NotZero(t, upd.TS)
		assert.Equal(t, 99.0, upd.Val.Float64())
	})
}

func TestLeafMetaSerialization(t *testing.T) {
	b, err := json.Marshal(leafMeta{Type: "state", Common: types.Leaf{
		Field: "generationPower",
		Name:  "generationPower",
		Type:  types.TypeNumber,
		Role:  types.RoleValue,
		Unit:  "W",
		Read:  true,
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "state",
		"common": {
			"name": "generationPower",
			"type": "number",
			"role": "value",
			"unit": "W",
			"read": true,
			"write": false
		}
	}`, string(b))
}

func TestRedisValidate(t *testing.T) {
	r := &RedisStore{}
	assert.ErrorContains(t, r.Validate(), "redis address cannot be empty")
}
