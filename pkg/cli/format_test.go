package cli

import (
	"testing"
	"time"

	"github.com/haivivi/tably/go/pkg/jsontime"
)

func TestFormatStamp(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

	got := FormatStamp(jsontime.Milli(ts))
	if got != "2025-03-14 09:26:53" {
		t.Errorf("FormatStamp = %q, want %q", got, "2025-03-14 09:26:53")
	}
}

func TestFormatStampTruncatesMillis(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 700*int(time.Millisecond), time.Local)

	got := FormatStamp(jsontime.Milli(ts))
	if got != "2025-03-14 09:26:53" {
		t.Errorf("FormatStamp = %q, want %q", got, "2025-03-14 09:26:53")
	}
}
