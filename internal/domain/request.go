package domain

import "time"

// Body sentinels used when a payload cannot be rendered as text.
const (
	BodyFormData   = "[FormData]"
	BodyBinary     = "[binary]"
	BodyUnreadable = "[binary or unreadable]"
	BodyParseError = "[Unable to parse body]"
)

// RecordState is the lifecycle phase of a Record.
type RecordState string

const (
	StateInFlight  RecordState = "in_flight"
	StateCompleted RecordState = "completed"
	StateFailed    RecordState = "failed"
)

// Record represents a single outbound HTTP exchange observed by a transport hook.
// Optional fields are nil until the corresponding lifecycle event arrives.
type Record struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	Status          *int              `json:"status,omitempty"`
	Duration        *int64            `json:"duration,omitempty"`
	RequestBody     *string           `json:"requestBody"`
	ResponseBody    *string           `json:"responseBody"`
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	StartTime       int64             `json:"startTime"`
	EndTime         *int64            `json:"endTime,omitempty"`
	Timestamp       string            `json:"timestamp"`
	Error           *string           `json:"error,omitempty"`
}

// NewRecord returns an in-flight record stamped with the current clock.
func NewRecord(id, method, url string) *Record {
	now := NowMillis()
	return &Record{
		ID:        id,
		URL:       url,
		Method:    NormalizeMethod(method),
		StartTime: now,
		Timestamp: FormatTimestamp(now),
	}
}

// State reports which lifecycle phase the record is in.
func (r *Record) State() RecordState {
	switch {
	case r.Error != nil:
		return StateFailed
	case r.Status != nil:
		return StateCompleted
	default:
		return StateInFlight
	}
}

// Terminal reports whether the record reached completed or failed.
func (r *Record) Terminal() bool { return r.State() != StateInFlight }

// Complete moves an in-flight record to the completed state. It returns false
// and leaves the record untouched when the record is already terminal.
func (r *Record) Complete(status int, body *string, endTime int64) bool {
	if r.Terminal() {
		return false
	}
	r.finish(endTime)
	r.Status = &status
	r.ResponseBody = body
	return true
}

// Fail moves an in-flight record to the failed state.
func (r *Record) Fail(msg string, endTime int64) bool {
	if r.Terminal() {
		return false
	}
	r.finish(endTime)
	r.Error = &msg
	body := msg
	r.ResponseBody = &body
	return true
}

func (r *Record) finish(endTime int64) {
	if endTime < r.StartTime {
		endTime = r.StartTime
	}
	d := endTime - r.StartTime
	r.EndTime = &endTime
	r.Duration = &d
}

// Clone returns a deep copy that shares no mutable state with r.
func (r *Record) Clone() Record {
	out := *r
	out.Status = clonePtr(r.Status)
	out.Duration = clonePtr(r.Duration)
	out.EndTime = clonePtr(r.EndTime)
	out.RequestBody = clonePtr(r.RequestBody)
	out.ResponseBody = clonePtr(r.ResponseBody)
	out.Error = clonePtr(r.Error)
	out.RequestHeaders = cloneHeaders(r.RequestHeaders)
	out.ResponseHeaders = cloneHeaders(r.ResponseHeaders)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// FormatTimestamp renders a clock reading as the human readable creation time.
func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// StringPtr is a small helper for optional string fields.
func StringPtr(s string) *string { return &s }
