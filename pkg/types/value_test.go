package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueUnmarshal(t *testing.T) {
	payload := `{
		"power": 1234.5,
		"count": "12",
		"status": "Running",
		"onlineFlag": true,
		"missing": null,
		"nested": {"a": 1},
		"list": [1, 2]
	}`

	var rec StationRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &rec))

	assert.Equal(t, KindNumber, rec["power"].Kind())
	assert.Equal(t, 1234.5, rec["power"].Float64())
	assert.Equal(t, KindString, rec["count"].Kind())
	assert.Equal(t, "12", rec["count"].Str())
	assert.Equal(t, KindString, rec["status"].Kind())
	assert.Equal(t, KindBool, rec["onlineFlag"].Kind())
	assert.True(t, rec["onlineFlag"].Bool())
	assert.Equal(t, KindNull, rec["missing"].Kind())
	assert.Equal(t, KindComposite, rec["nested"].Kind())
	assert.Equal(t, KindComposite, rec["list"].Kind())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "1234", Number(1234).String())
	assert.Equal(t, "12.5", Number(12.5).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "false", Bool(false).String())
	assert.Equal(t, "Running", Str("Running").String())
	assert.Equal(t, "", Null().String())
	assert.Equal(t, `{"a":1}`, Composite(json.RawMessage(`{"a":1}`)).String())
}

func TestValueMarshalRoundTrip(t *testing.T) {
	// Snapshots must not reformat the vendor payload, so the raw bytes are
	// kept verbatim through an unmarshal/marshal cycle.
	raw := `{"power":12.50,"name":"S1","onlineFlag":true,"meta":{"x":[1,2]}}`
	var rec StationRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	b, err := json.Marshal(rec["power"])
	require.NoError(t, err)
	assert.Equal(t, "12.50", string(b))

	b, err = json.Marshal(rec["meta"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":[1,2]}`, string(b))
}

func TestStationRecord(t *testing.T) {
	rec := StationRecord{
		"id":    Str("S1"),
		"name":  Str("Roof"),
		"power": Number(10),
	}
	assert.Equal(t, "S1", rec.ID())
	assert.Equal(t, "Roof", rec.Name())
	assert.Equal(t, []string{"id", "name", "power"}, rec.Fields())

	// numeric ids are stringified
	rec = StationRecord{"id": Number(42)}
	assert.Equal(t, "42", rec.ID())

	// missing or null id yields empty
	assert.Equal(t, "", StationRecord{}.ID())
	assert.Equal(t, "", StationRecord{"id": Null()}.ID())
	assert.Equal(t, "", StationRecord{}.Name())
}
