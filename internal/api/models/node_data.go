package models

import (
	"database/sql/driver"
	"fmt"
)

// NodeData is a raw jsonb payload column. It round-trips JSON untouched so
// the type-specific config shape lives with the node type, not the schema.
type NodeData []byte

// Scan implements sql.Scanner interface
func (n *NodeData) Scan(value interface{}) error {
	if value == nil {
		*n = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*n = v
		return nil
	case string:
		*n = []byte(v)
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into NodeData", value)
	}
}

// Value implements driver.Valuer interface
func (n NodeData) Value() (driver.Value, error) {
	if n == nil {
		return nil, nil
	}
	return []byte(n), nil
}

// MarshalJSON implements json.Marshaler - returns raw JSON
func (n NodeData) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return n, nil
}

// UnmarshalJSON implements json.Unmarshaler - stores raw JSON
func (n *NodeData) UnmarshalJSON(data []byte) error {
	if data == nil {
		*n = nil
		return nil
	}
	*n = data
	return nil
}
