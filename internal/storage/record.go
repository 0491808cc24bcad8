package storage

import (
	"bytes"
	"encoding/json"
)

// Record is one decoded log entry. Fields the current models do not know
// about are preserved.
type Record map[string]any

// DecodeRecord accepts a JSON object, or a JSON string whose content is a
// JSON object (rows written double encoded). Anything else is rejected.
func DecodeRecord(raw []byte) (Record, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}

	switch raw[0] {
	case '{':
		return decodeObject(raw)
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		inner = string(bytes.TrimSpace([]byte(inner)))
		if len(inner) == 0 || inner[0] != '{' {
			return nil, false
		}
		return decodeObject([]byte(inner))
	default:
		return nil, false
	}
}

func decodeObject(raw []byte) (Record, bool) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return nil, false
	}
	return rec, true
}

// String returns the string field key, or "".
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}
