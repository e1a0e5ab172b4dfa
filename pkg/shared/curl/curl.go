// Package curl renders recorded requests as copy-pasteable curl commands.
package curl

import (
	"sort"
	"strings"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

const continuation = " \\\n  "

// Generate builds a multi-line curl command for rec. Headers are emitted in
// sorted key order; the body is included for every method except GET; the
// URL always comes last.
func Generate(rec domain.Record) string {
	method := strings.ToUpper(rec.Method)
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(method)

	keys := make([]string, 0, len(rec.RequestHeaders))
	for k := range rec.RequestHeaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(continuation)
		b.WriteString(`-H "`)
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(rec.RequestHeaders[k])
		b.WriteString(`"`)
	}

	if rec.RequestBody != nil && *rec.RequestBody != "" && method != "GET" {
		b.WriteString(continuation)
		b.WriteString(`-d "`)
		b.WriteString(strings.ReplaceAll(*rec.RequestBody, `"`, `\"`))
		b.WriteString(`"`)
	}

	b.WriteString(continuation)
	b.WriteString(`"`)
	b.WriteString(rec.URL)
	b.WriteString(`"`)
	return b.String()
}
