package types

import "sort"

// Credentials are the SofarCloud account credentials. They are supplied via
// configuration and never persisted.
type Credentials struct {
	Username string
	Password string
}

// StationRecord is the flat real-time dataset reported for one station. Keys
// ending in "Unit" (case-insensitive) annotate the sibling field with the same
// prefix and are never projected as standalone leaves.
type StationRecord map[string]Value

// ID returns the string form of the record's own id field, or empty when the
// record carries none.
func (r StationRecord) ID() string {
	v, ok := r["id"]
	if !ok || v.Kind() == KindNull || v.Kind() == KindComposite {
		return ""
	}
	return v.String()
}

// Name returns the station's display name, or empty when absent.
func (r StationRecord) Name() string {
	v, ok := r["name"]
	if !ok || v.Kind() != KindString {
		return ""
	}
	return v.Str()
}

// Fields returns the field names in sorted order. Go map iteration is
// randomized; projection and publication need a stable order so repeated runs
// touch the store and the bus identically.
func (r StationRecord) Fields() []string {
	fields := make([]string, 0, len(r))
	for k := range r {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}
