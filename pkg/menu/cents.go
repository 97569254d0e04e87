package menu

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a money amount in integer cents. Menu prices and order totals
// stay in cents end to end so that totals are decimal exact; the two-decimal
// form only appears at the serialization boundary.
type Cents int64

// ParseCents parses a decimal price string such as "12.99", "4.5", or "13"
// into cents. At most two fractional digits are accepted.
func ParseCents(s string) (Cents, error) {
	orig := s
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" || !isDigits(intPart) {
		return 0, fmt.Errorf("menu: invalid price %q", orig)
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("menu: invalid price %q: %w", orig, err)
	}
	cents := whole * 100
	if hasFrac {
		if fracPart == "" || len(fracPart) > 2 || !isDigits(fracPart) {
			return 0, fmt.Errorf("menu: invalid price %q: at most two decimal places", orig)
		}
		frac, _ := strconv.Atoi(fracPart)
		if len(fracPart) == 1 {
			frac *= 10
		}
		cents += int64(frac)
	}
	if neg {
		cents = -cents
	}
	return Cents(cents), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String formats the amount with two decimal places, e.g. "12.99".
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Dollars formats the amount for display, e.g. "$12.99".
func (c Cents) Dollars() string {
	return "$" + c.String()
}

// MarshalJSON emits the amount as an exact two-decimal JSON number.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a two-decimal number (12.99) or the same value
// quoted.
func (c *Cents) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		return nil
	}
	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalYAML implements yaml.BytesMarshaler.
func (c Cents) MarshalYAML() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler for goccy/go-yaml, so a
// plain `price: 12.99` scalar parses without a float round trip.
func (c *Cents) UnmarshalYAML(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"'`)
	v, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
