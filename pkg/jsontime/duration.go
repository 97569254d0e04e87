// Package jsontime provides time types with friendly JSON and YAML
// encodings: durations as "1.5s" strings and timestamps as epoch
// milliseconds.
package jsontime

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that encodes as its string form
// ("1m30s"). Decoding accepts the string form or raw nanoseconds, in
// both JSON and YAML, so settings files can say "1.5s" while
// programmatic producers emit integers.
type Duration time.Duration

// Duration returns the wrapped time.Duration. A nil receiver reads as
// zero so optional settings fields need no guard.
func (d *Duration) Duration() time.Duration {
	if d == nil {
		return 0
	}
	return time.Duration(*d)
}

// String returns the standard duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON emits the string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "1h30m" or integer nanoseconds. JSON null
// keeps the current value.
func (d *Duration) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return d.parse(s)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

// MarshalYAML implements yaml.BytesMarshaler with the same string
// form as JSON.
func (d Duration) MarshalYAML() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler. Bare and quoted
// scalars both decode; empty and null keep the current value.
func (d *Duration) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(n)
		return nil
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}
