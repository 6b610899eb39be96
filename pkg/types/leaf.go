package types

// Role is the semantic classification of a field's meaning, independent of its
// storage type.
type Role string

const (
	RoleValue     Role = "value"
	RoleIndicator Role = "indicator"
	RoleText      Role = "text"
	// RoleNone is assigned to values that cannot be classified (composites
	// never reach inference, but the engine stays total over any input).
	RoleNone Role = ""
)

// ValueType is the declared storage type of a leaf.
type ValueType string

const (
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeString  ValueType = "string"
	TypeUnknown ValueType = ""
)

// Leaf describes one telemetry field as stored in the state tree. The
// metadata is set once when the leaf is created and not re-derived on later
// runs, so the external schema stays stable across firmware changes.
type Leaf struct {
	Field string    `json:"-"`
	Name  string    `json:"name"`
	Type  ValueType `json:"type"`
	Role  Role      `json:"role"`
	Unit  string    `json:"unit"`
	Read  bool      `json:"read"`
	Write bool      `json:"write"`
}
