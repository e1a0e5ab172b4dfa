package hooks

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

const truncatedSuffix = "…[truncated]"

// maxDecompressed caps preview decompression output.
const maxDecompressed = 1 << 20

// HeadersOf flattens multi-value headers into the record's single-value form.
func HeadersOf(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

func capturedRequestBody(body string) *string {
	if body == "" {
		return nil
	}
	if !isText([]byte(body)) {
		return domain.StringPtr(domain.BodyBinary)
	}
	return &body
}

func capturedResponseBody(body, responseType string) *string {
	if responseType == "blob" || !isText([]byte(body)) {
		return domain.StringPtr(domain.BodyUnreadable)
	}
	return &body
}

// requestBody renders the outgoing body for the record and returns the request
// that must be sent: when the body had to be consumed it is reattached on a
// shallow copy so the caller's request is left untouched.
func requestBody(req *http.Request, limit int64) (*string, *http.Request) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, req
	}
	mt := mediaType(req.Header.Get("Content-Type"))
	if strings.HasPrefix(mt, "multipart/") {
		return domain.StringPtr(domain.BodyFormData), req
	}

	var (
		raw  []byte
		more bool
		err  error
		out  = req
	)
	if req.GetBody != nil {
		var rc io.ReadCloser
		if rc, err = req.GetBody(); err == nil {
			raw, more, err = readLimited(rc, limit)
			_ = rc.Close()
		}
	} else {
		raw, more, err = readLimited(req.Body, limit)
		out = req.WithContext(req.Context())
		out.Body = readCloser{io.MultiReader(bytes.NewReader(raw), req.Body), req.Body}
	}
	if err != nil {
		return domain.StringPtr(domain.BodyParseError), out
	}
	if len(raw) == 0 {
		return nil, out
	}
	if mt == "application/octet-stream" || !isText(raw) {
		return domain.StringPtr(domain.BodyBinary), out
	}
	s := string(raw)
	if more {
		s += truncatedSuffix
	}
	return &s, out
}

// responseBody peeks the response body for the record and reattaches the
// bytes so the caller still reads the complete original stream.
func responseBody(resp *http.Response, limit int64) *string {
	if resp.Body == nil || resp.Body == http.NoBody {
		return domain.StringPtr("")
	}
	if resp.StatusCode == http.StatusSwitchingProtocols || mediaType(resp.Header.Get("Content-Type")) == "text/event-stream" {
		// streams never end on their own; reading ahead would stall the caller
		return domain.StringPtr(domain.BodyUnreadable)
	}
	orig := resp.Body
	raw, more, err := readLimited(orig, limit)
	resp.Body = readCloser{io.MultiReader(bytes.NewReader(raw), orig), orig}
	if err != nil {
		return domain.StringPtr(domain.BodyUnreadable)
	}
	enc := strings.ToLower(resp.Header.Get("Content-Encoding"))
	if enc == "gzip" || enc == "deflate" {
		if dec, ok := tryDecompress(raw, enc); ok {
			raw = dec
		}
	}
	if !isText(raw) {
		return domain.StringPtr(domain.BodyUnreadable)
	}
	s := string(raw)
	if more {
		s += truncatedSuffix
	}
	return &s
}

// readLimited reads up to limit bytes and reports whether more remain.
func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return b, false, err
	}
	if int64(len(b)) > limit {
		return b[:limit], true, nil
	}
	return b, false, nil
}

// tryDecompress performs bounded decompression for previews only.
func tryDecompress(b []byte, enc string) ([]byte, bool) {
	var zr io.ReadCloser
	switch enc {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(b))
		if err != nil {
			return nil, false
		}
		zr = r
	case "deflate":
		zr = flate.NewReader(bytes.NewReader(b))
	default:
		return nil, false
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxDecompressed))
	if err != nil && len(out) == 0 {
		return nil, false
	}
	return out, true
}

func mediaType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}
	return mt
}

func isText(b []byte) bool {
	return utf8.Valid(b) && bytes.IndexByte(b, 0) < 0
}

type readCloser struct {
	io.Reader
	io.Closer
}
