package httpapi

import (
	"strings"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	"github.com/doanphungtu/tudp-rn-debugger/pkg/shared/format"
	"github.com/doanphungtu/tudp-rn-debugger/pkg/shared/redact"
)

// recordView decorates a record with display fields for API consumers.
type recordView struct {
	domain.Record
	State        domain.RecordState `json:"state"`
	DurationText string             `json:"durationText"`
	StatusColor  string             `json:"statusColor"`
	ErrorCode    string             `json:"errorCode,omitempty"`
}

func (d *Deps) view(r domain.Record) recordView {
	if !d.Cfg.ExposeSensitiveHeaders {
		r = redact.Record(r)
	}
	v := recordView{
		Record:       r,
		State:        r.State(),
		DurationText: format.Duration(r.Duration),
		StatusColor:  format.StatusColor(r.Status),
	}
	if r.Error != nil {
		v.ErrorCode = classifyNetError(*r.Error)
	}
	return v
}

// Coarse network error classification for the UI
func classifyNetError(msg string) string {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "context deadline exceeded") || strings.Contains(m, "timeout") || strings.Contains(m, "timed out"):
		return "TIMEOUT"
	case strings.Contains(m, "no such host") || strings.Contains(m, "server misbehaving"):
		return "DNS"
	case strings.Contains(m, "x509") || strings.Contains(m, "certificate") || strings.Contains(m, "tls"):
		return "TLS"
	case strings.Contains(m, "connection refused") || strings.Contains(m, "cannot assign"):
		return "CONNECT"
	case strings.Contains(m, "connection reset") || strings.Contains(m, "reset by peer"):
		return "RST"
	case strings.Contains(m, "before full header") || strings.Contains(m, "unexpected eof") || strings.Contains(m, "eof"):
		return "EOF"
	case strings.Contains(m, "request canceled") || strings.Contains(m, "context canceled"):
		return "CANCEL"
	default:
		return "ERROR"
	}
}

// matches applies the list query filters.
func matches(r domain.Record, q, method, state string) bool {
	if q != "" && !strings.Contains(strings.ToLower(r.URL), strings.ToLower(q)) {
		return false
	}
	if method != "" && !strings.EqualFold(r.Method, method) {
		return false
	}
	if state != "" && string(r.State()) != state {
		return false
	}
	return true
}
