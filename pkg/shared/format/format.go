// Package format holds display helpers shared by the CLI and the inspector API.
package format

import (
	"fmt"
	"time"
)

// Status colors.
const (
	ColorSuccess  = "#4CAF50"
	ColorRedirect = "#FF9800"
	ColorError    = "#F44336"
	ColorNeutral  = "#999"
)

// Duration renders milliseconds: "-" when absent or zero, "500ms" below one
// second, "1.50s" otherwise.
func Duration(ms *int64) string {
	if ms == nil || *ms == 0 {
		return "-"
	}
	if *ms < 1000 {
		return fmt.Sprintf("%dms", *ms)
	}
	return fmt.Sprintf("%.2fs", float64(*ms)/1000)
}

// StatusColor classifies a status code; ranges are inclusive on the low end.
func StatusColor(status *int) string {
	if status == nil || *status == 0 {
		return ColorNeutral
	}
	switch s := *status; {
	case s >= 200 && s < 300:
		return ColorSuccess
	case s >= 300 && s < 400:
		return ColorRedirect
	case s >= 400:
		return ColorError
	}
	return ColorNeutral
}

// Timestamp renders a record timestamp as local wall time. Unparseable input
// is returned as is.
func Timestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("15:04:05")
}
