package curl

import (
	"testing"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

func TestGeneratePost(t *testing.T) {
	body := `{"a":1}`
	rec := domain.Record{
		Method:         "post",
		URL:            "https://x/y",
		RequestHeaders: map[string]string{"Content-Type": "application/json"},
		RequestBody:    &body,
	}
	want := "curl -X POST \\\n  -H \"Content-Type: application/json\" \\\n  -d \"{\\\"a\\\":1}\" \\\n  \"https://x/y\""
	if got := Generate(rec); got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestGenerateGetOmitsBody(t *testing.T) {
	body := "ignored"
	rec := domain.Record{Method: "GET", URL: "https://x/", RequestBody: &body}
	if got, want := Generate(rec), "curl -X GET \\\n  \"https://x/\""; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestGenerateHeaderOrderAndEmptyBody(t *testing.T) {
	empty := ""
	rec := domain.Record{
		Method:         "DELETE",
		URL:            "https://x/1",
		RequestHeaders: map[string]string{"X-B": "2", "Accept": "*/*", "X-A": "1"},
		RequestBody:    &empty,
	}
	want := "curl -X DELETE \\\n  -H \"Accept: */*\" \\\n  -H \"X-A: 1\" \\\n  -H \"X-B: 2\" \\\n  \"https://x/1\""
	if got := Generate(rec); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
