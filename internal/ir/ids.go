package ir

// TypeID uniquely identifies a type definition by library namespace and name.
type TypeID struct {
	Library string // e.g., "decimal"
	Name    string // e.g., "FixedDecimal"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.Library == "" {
		return t.Name
	}

	return t.Library + "." + t.Name
}

// IsZero returns true if the TypeID names nothing.
func (t TypeID) IsZero() bool {
	return t.Library == "" && t.Name == ""
}

// Less orders TypeIDs by library, then name. Used wherever deterministic
// traversal order is required.
func (t TypeID) Less(other TypeID) bool {
	if t.Library != other.Library {
		return t.Library < other.Library
	}

	return t.Name < other.Name
}
