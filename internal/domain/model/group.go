package model

import (
	"encoding/json"
	"fmt"
)

// Field names of the directory group resource.
const (
	GroupFieldEmail = "email"
	GroupFieldGID   = "gid"
)

// GroupRecord is the JSON representation of a directory group.
type GroupRecord map[string]any

// GID returns the group's gid as a decimal string. The API encodes it as a
// string, but a numeric value is accepted too.
func (r GroupRecord) GID() (string, bool) {
	switch v := r[GroupFieldGID].(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return fmt.Sprintf("%.0f", v), true
	default:
		return "", false
	}
}
