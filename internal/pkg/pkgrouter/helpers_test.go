package pkgrouter

import (
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeCID(t *testing.T) {
	if got := normalizeCID("  abc  "); got != "abc" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := normalizeCID("a\nb"); got != "" {
		t.Fatalf("expected empty for newline, got %q", got)
	}
	if got := normalizeCID(strings.Repeat("a", 200)); len(got) != maxCIDLen {
		t.Fatalf("expected length %d, got %d", maxCIDLen, len(got))
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "secret")
	headers.Set("X-Api-Key", "key")
	headers.Set("Content-Type", "text/csv")

	masked := maskHeaders(headers)
	if got := masked.Get("Authorization"); got != "***" {
		t.Fatalf("expected masked authorization, got %q", got)
	}
	if got := masked.Get("X-Api-Key"); got != "***" {
		t.Fatalf("expected masked api key, got %q", got)
	}
	if got := masked.Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected content type to stay, got %q", got)
	}
	if got := headers.Get("Authorization"); got != "secret" {
		t.Fatalf("expected original headers unchanged, got %q", got)
	}
}

func TestIsJSON(t *testing.T) {
	cases := map[string]bool{
		"application/json":                 true,
		" Application/JSON; charset=utf-8": true,
		"text/csv; charset=utf-8":          false,
		"multipart/form-data; boundary=x":  false,
		"":                                 false,
	}
	for ct, want := range cases {
		if got := isJSON(ct); got != want {
			t.Fatalf("isJSON(%q): expected %v, got %v", ct, want, got)
		}
	}
}

func TestLogBody(t *testing.T) {
	if got := logBody(nil); got != nil {
		t.Fatalf("expected nil for empty body, got %v", got)
	}
	want := map[string]any{"start": "2024-01-01"}
	if got := logBody([]byte(`{"start":"2024-01-01"}`)); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected decoded body: %#v", got)
	}
	if got := logBody([]byte("{broken")); got != "{broken" {
		t.Fatalf("expected raw text fallback, got %v", got)
	}
}

func TestInternalFrames(t *testing.T) {
	stack := "goroutine 1 [running]:\n" +
		"main.main()\n" +
		"\t/src/app/internal/dataset/usecase/usecase.go:42 +0x1d\n" +
		"\t/usr/local/go/src/runtime/proc.go:271 +0x29\n"

	want := []string{"internal/dataset/usecase/usecase.go:42"}
	if got := internalFrames(stack); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected frames: %#v", got)
	}
}
