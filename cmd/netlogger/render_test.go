package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/doanphungtu/tudp-rn-debugger/interfaces/go/client"
	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

func TestPrinterDetailPlain(t *testing.T) {
	status := 201
	dur := int64(1500)
	r := domain.Record{
		ID:              "1",
		URL:             "https://api.test/items",
		Method:          "POST",
		Status:          &status,
		Duration:        &dur,
		RequestBody:     domain.StringPtr(`{"a":1}`),
		ResponseBody:    domain.StringPtr("ok"),
		RequestHeaders:  map[string]string{"X-B": "2", "Content-Type": "application/json"},
		ResponseHeaders: map[string]string{"Server": "test"},
		Timestamp:       "not-a-time",
	}
	var buf bytes.Buffer
	p := newPrinter(&buf)
	if p.color {
		t.Fatalf("buffers never get color")
	}
	p.detail(r)
	out := buf.String()
	for _, want := range []string{
		"not-a-time 201 POST    https://api.test/items 1.50s",
		"  Content-Type: application/json\n  X-B: 2",
		"response body\n  ok",
		"curl -X POST \\\n  -H \"Content-Type: application/json\" \\\n  -H \"X-B: 2\" \\\n  -d \"{\\\"a\\\":1}\" \\\n  \"https://api.test/items\"",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
}

func TestPrinterLineStates(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	p.line(domain.Record{Method: "GET", URL: "http://x", Timestamp: "t"})
	msg := "connection refused"
	p.line(domain.Record{Method: "GET", URL: "http://y", Timestamp: "t", Error: &msg})
	out := buf.String()
	if !strings.Contains(out, "t ... GET     http://x -") {
		t.Fatalf("in-flight line wrong:\n%s", out)
	}
	if !strings.Contains(out, "t ERR GET     http://y -\n  connection refused") {
		t.Fatalf("failed line wrong:\n%s", out)
	}
}

func TestRecordOfCopiesFields(t *testing.T) {
	status := 200
	r := recordOf(client.Request{ID: "7", URL: "u", Method: "GET", Status: &status, Timestamp: "ts"})
	if r.ID != "7" || r.URL != "u" || *r.Status != 200 || r.Timestamp != "ts" {
		t.Fatalf("unexpected record %+v", r)
	}
}
