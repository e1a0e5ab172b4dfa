package domain

import (
	"strings"
	"time"
)

// The process start is captured once; later readings add the monotonic
// elapsed time to it, so consecutive readings never go backwards even when
// the wall clock is adjusted.
var (
	clockBase   = time.Now()
	clockBaseMs = clockBase.UnixMilli()
)

// NowMillis returns wall-clock milliseconds backed by the monotonic clock.
func NowMillis() int64 {
	return clockBaseMs + time.Since(clockBase).Milliseconds()
}

// NormalizeMethod upper-cases method and defaults to GET.
func NormalizeMethod(method string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m == "" {
		return "GET"
	}
	return m
}
