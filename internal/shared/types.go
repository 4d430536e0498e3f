package shared

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"strconv"
	"strings"
)

// Scalar keeps the raw text of a JSON scalar from a request body. The API does
// not validate input: the value is handed to the store as text and the store
// decides whether it is a valid date, integer or string. null and absent
// values stay NULL.
type Scalar struct {
	text  string
	valid bool
}

// Text returns a non-null Scalar holding s.
func Text(s string) Scalar {
	return Scalar{text: s, valid: true}
}

// Null reports whether the value was absent or JSON null.
func (s Scalar) Null() bool {
	return !s.valid
}

func (s Scalar) String() string {
	return s.text
}

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Scalar{}
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Text(str)
		return nil
	}
	// numbers, booleans, objects and arrays keep their JSON text
	*s = Text(string(b))
	return nil
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.text)
}

// Value implements driver.Valuer so a Scalar binds directly as a query parameter.
func (s Scalar) Value() (driver.Value, error) {
	if !s.valid {
		return nil, nil
	}
	return s.text, nil
}

// ID returns raw as an int64 when it is a decimal integer, as the store reads it
// once a write has accepted it, and the text unchanged otherwise. Business records
// use it so ids carry the same type as the ids of listed rows.
func ID(raw string) any {
	if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return n
	}
	return raw
}
