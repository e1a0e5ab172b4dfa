package redact

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

const mask = "***"

var sensitiveKeys = []string{"authorization", "cookie", "access_token", "id_token", "refresh_token", "session", "apikey", "password"}

var sensitiveHeaders = map[string]struct{}{
	"Authorization":       {},
	"Proxy-Authorization": {},
	"Cookie":              {},
	"Set-Cookie":          {},
	"X-Api-Key":           {},
	"X-Auth-Token":        {},
}

// RedactJSON masks sensitive fields in a JSON string best-effort.
func RedactJSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	redactNode(&v)
	b, err := json.Marshal(v)
	if err != nil {
		return s
	}
	return string(b)
}

// Headers returns a copy of h with credential-bearing values masked.
func Headers(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if _, ok := sensitiveHeaders[http.CanonicalHeaderKey(k)]; ok {
			out[k] = mask
			continue
		}
		out[k] = v
	}
	return out
}

// Record masks headers and JSON bodies of a snapshot copy.
func Record(r domain.Record) domain.Record {
	r.RequestHeaders = Headers(r.RequestHeaders)
	r.ResponseHeaders = Headers(r.ResponseHeaders)
	r.RequestBody = redactBody(r.RequestBody)
	r.ResponseBody = redactBody(r.ResponseBody)
	return r
}

func redactBody(p *string) *string {
	if p == nil {
		return nil
	}
	s := RedactJSON(*p)
	return &s
}

func redactNode(n *any) {
	switch t := (*n).(type) {
	case map[string]any:
		for k, v := range t {
			if isSensitiveKey(k) {
				t[k] = mask
				continue
			}
			vv := any(v)
			redactNode(&vv)
			t[k] = vv
		}
	case []any:
		for i := range t {
			vv := any(t[i])
			redactNode(&vv)
			t[i] = vv
		}
	}
}

func isSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if k == s {
			return true
		}
	}
	return false
}
