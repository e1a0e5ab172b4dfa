package format

import (
	"testing"
	"time"
)

func i64(v int64) *int64 { return &v }
func ip(v int) *int      { return &v }

func TestDuration(t *testing.T) {
	cases := []struct {
		in   *int64
		want string
	}{
		{nil, "-"},
		{i64(0), "-"},
		{i64(500), "500ms"},
		{i64(999), "999ms"},
		{i64(1000), "1.00s"},
		{i64(1500), "1.50s"},
	}
	for _, c := range cases {
		if got := Duration(c.in); got != c.want {
			t.Fatalf("Duration(%v)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestStatusColor(t *testing.T) {
	cases := []struct {
		in   *int
		want string
	}{
		{nil, ColorNeutral},
		{ip(101), ColorNeutral},
		{ip(200), ColorSuccess},
		{ip(204), ColorSuccess},
		{ip(299), ColorSuccess},
		{ip(300), ColorRedirect},
		{ip(301), ColorRedirect},
		{ip(400), ColorError},
		{ip(404), ColorError},
		{ip(503), ColorError},
	}
	for i, c := range cases {
		if got := StatusColor(c.in); got != c.want {
			t.Fatalf("case %d: got %q want %q", i, got, c.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if got, want := Timestamp(ts.Format(time.RFC3339)), ts.Local().Format("15:04:05"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := Timestamp("not a time"); got != "not a time" {
		t.Fatalf("got %q", got)
	}
}
