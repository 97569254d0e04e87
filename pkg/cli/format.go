package cli

import "github.com/haivivi/tably/go/pkg/jsontime"

// FormatStamp renders an epoch-millisecond timestamp for table
// output, in local time.
func FormatStamp(t jsontime.Milli) string {
	return t.Time().Local().Format("2006-01-02 15:04:05")
}
