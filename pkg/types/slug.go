package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Slug accepts both the flat string form and the content store's
// {"current": "..."} object.
type Slug string

// UnmarshalJSON implements json.Unmarshaler.
func (s *Slug) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*s = ""
	case trimmed[0] == '"':
		var plain string
		if err := json.Unmarshal(trimmed, &plain); err != nil {
			return err
		}
		*s = Slug(strings.TrimSpace(plain))
	case trimmed[0] == '{':
		var obj struct {
			Current string `json:"current"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		*s = Slug(strings.TrimSpace(obj.Current))
	default:
		*s = ""
	}
	return nil
}

func (s Slug) String() string {
	return string(s)
}
