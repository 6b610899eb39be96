// Package schema normalizes the untyped SofarCloud station payloads: it maps
// display strings to store-safe identifiers and infers a semantic role and
// value type for every field.
package schema

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sofarbridge/sofarbridge/pkg/types"
)

// forbiddenChars are the characters the state tree rejects in identifiers.
var forbiddenChars = regexp.MustCompile("[\\]\\[*,;'\"`<>\\\\?]")

// SanitizeID replaces every forbidden character with an underscore. Empty
// input yields an empty string. Idempotent.
func SanitizeID(name string) string {
	if name == "" {
		return ""
	}
	return forbiddenChars.ReplaceAllString(name, "_")
}

// Infer determines the semantic role and value type for a field. Rules are
// ordered and later rules override earlier ones:
//
//  1. classify by the value's native kind,
//  2. a string that parses as a number is reclassified as a numeric value
//     (the cloud API stringifies numbers on some firmware versions),
//  3. a field name ending in "Flag" or "IsNull" is always a boolean
//     indicator, regardless of the runtime value. This is the vendor's naming
//     convention, not a value inspection, and it has the highest precedence.
//
// Pure and total over any Value and any field name.
func Infer(v types.Value, field string) (types.Role, types.ValueType) {
	var role types.Role
	var vt types.ValueType
	switch v.Kind() {
	case types.KindNumber:
		role, vt = types.RoleValue, types.TypeNumber
	case types.KindBool:
		role, vt = types.RoleIndicator, types.TypeBoolean
	case types.KindString:
		role, vt = types.RoleText, types.TypeString
	default:
		role, vt = types.RoleNone, types.TypeUnknown
	}

	if v.Kind() == types.KindString && v.Str() != "" {
		if _, err := strconv.ParseFloat(v.Str(), 64); err == nil {
			role, vt = types.RoleValue, types.TypeNumber
		}
	}

	if strings.HasSuffix(field, "Flag") || strings.HasSuffix(field, "IsNull") {
		role, vt = types.RoleIndicator, types.TypeBoolean
	}

	return role, vt
}
