package schema

import (
	"encoding/json"
	"testing"

	"github.com/sofarbridge/sofarbridge/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "", SanitizeID(""))
	assert.Equal(t, "station_1", SanitizeID("station*1"))
	assert.Equal(t, "a_b_c_d_e_f_g_h_i_j_k", SanitizeID(`a]b[c*d,e;f'g"h<i>j?k`))
	assert.Equal(t, "plain-id.ok", SanitizeID("plain-id.ok"))

	// no forbidden character survives
	out := SanitizeID("x\\y`z")
	assert.NotContains(t, out, "\\")
	assert.NotContains(t, out, "`")

	// idempotent
	in := `we"ird[名前]`
	assert.Equal(t, SanitizeID(in), SanitizeID(SanitizeID(in)))
}

func TestInfer(t *testing.T) {
	tests := []struct {
		name  string
		value types.Value
		field string
		role  types.Role
		vt    types.ValueType
	}{
		{"number", types.Number(1234), "power", types.RoleValue, types.TypeNumber},
		{"numeric string", types.Str("12.5"), "power", types.RoleValue, types.TypeNumber},
		{"boolean", types.Bool(true), "online", types.RoleIndicator, types.TypeBoolean},
		{"text", types.Str("Running"), "status", types.RoleText, types.TypeString},
		{"null", types.Null(), "meta", types.RoleNone, types.TypeUnknown},
		{"composite", types.Composite(json.RawMessage(`{}`)), "meta", types.RoleNone, types.TypeUnknown},

		// suffix override wins over the boolean-native classification
		{"flag boolean", types.Bool(true), "onlineFlag", types.RoleIndicator, types.TypeBoolean},
		// ...and over the numeric-string override, proving it is last
		{"flag numeric string", types.Str("5"), "errorFlag", types.RoleIndicator, types.TypeBoolean},
		{"flag text", types.Str("ready"), "doneFlag", types.RoleIndicator, types.TypeBoolean},
		{"isnull suffix", types.Number(0), "batPowerIsNull", types.RoleIndicator, types.TypeBoolean},

		// empty strings stay text, they are not numeric-parseable
		{"empty string", types.Str(""), "note", types.RoleText, types.TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, vt := Infer(tt.value, tt.field)
			assert.Equal(t, tt.role, role, "role mismatch")
			assert.Equal(t, tt.vt, vt, "type mismatch")
		})
	}
}
