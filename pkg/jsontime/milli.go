package jsontime

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Milli is a time.Time that encodes as Unix milliseconds. Order
// records and session events carry their timestamps in this form.
type Milli time.Time

// NowEpochMilli returns the current time as Milli.
func NowEpochMilli() Milli {
	return Milli(time.Now())
}

// Time returns the wrapped time.Time.
func (m Milli) Time() time.Time {
	return time.Time(m)
}

// MarshalJSON emits the timestamp as an integer millisecond count.
func (m Milli) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(m).UnixMilli())
}

// UnmarshalJSON accepts an integer millisecond count.
func (m *Milli) UnmarshalJSON(b []byte) error {
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	*m = Milli(time.UnixMilli(ms))
	return nil
}

// MarshalYAML implements yaml.BytesMarshaler with the same
// millisecond form as JSON.
func (m Milli) MarshalYAML() ([]byte, error) {
	return []byte(strconv.FormatInt(time.Time(m).UnixMilli(), 10)), nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (m *Milli) UnmarshalYAML(b []byte) error {
	ms, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return err
	}
	*m = Milli(time.UnixMilli(ms))
	return nil
}
