package pkgerror

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestTypeString(t *testing.T) {
	cases := map[Type]string{
		TypeValidation: "ERROR_TYPE_VALIDATION",
		TypeBusiness:   "ERROR_TYPE_BUSINESS",
		TypeServer:     "ERROR_TYPE_SERVER",
		Type(99):       "ERROR_TYPE_UNKNOWN",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Fatalf("Type(%d).String(): expected %q, got %q", typ, want, got)
		}
	}
}

func TestCodeStringAndStatus(t *testing.T) {
	cases := []struct {
		code   Code
		name   string
		status int
	}{
		{CodeInvalidFormat, "ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
		{CodeInvalidInput, "ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
		{CodeNotFound, "ERROR_CODE_NOT_FOUND", http.StatusNotFound},
		{CodeConflict, "ERROR_CODE_CONFLICT", http.StatusConflict},
		{CodeTooLarge, "ERROR_CODE_TOO_LARGE", http.StatusRequestEntityTooLarge},
		{CodeTooManyRequests, "ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
		{CodeInternal, "ERROR_CODE_INTERNAL", http.StatusInternalServerError},
		{Code(99), "ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.name {
			t.Fatalf("Code(%d).String(): expected %q, got %q", c.code, c.name, got)
		}
		if got := newError(nil, "", TypeBusiness, c.code).StatusCode(); got != c.status {
			t.Fatalf("Code(%d) status: expected %d, got %d", c.code, c.status, got)
		}
	}
}

func TestNewServerHidesCause(t *testing.T) {
	root := errors.New("disk full")
	err := NewServer(root)

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected wrapped error")
	}
	if got := gerr.Msg(); got != "Internal server error" {
		t.Fatalf("unexpected msg: %q", got)
	}
	if got := gerr.Error(); got != "disk full" {
		t.Fatalf("unexpected error string: %q", got)
	}
	if gerr.Type() != TypeServer || gerr.Code() != CodeInternal {
		t.Fatalf("unexpected classification: %s", gerr.String())
	}
}

func TestDomainErrors(t *testing.T) {
	root := errors.New("no 'Date' column found")

	invalidInput := NewInvalidInput(root).(*Error)
	if got := invalidInput.Msg(); got != "no 'Date' column found" {
		t.Fatalf("unexpected invalid input msg: %q", got)
	}
	if !errors.Is(invalidInput, root) {
		t.Fatalf("expected invalid input to wrap error")
	}

	notFound := NewNotFound("dataset not found")
	if !errors.Is(notFound, ErrNotFound) {
		t.Fatalf("expected not found to wrap ErrNotFound")
	}
	if got := notFound.(*Error).StatusCode(); got != http.StatusNotFound {
		t.Fatalf("unexpected not found status: %d", got)
	}

	generic := NewInvalidFormat(nil).(*Error)
	if got := generic.Error(); got != "invalid request body" {
		t.Fatalf("unexpected invalid format error: %q", got)
	}

	parse := NewInvalidFormat(errors.New("line 3 has 9 fields")).(*Error)
	if got := parse.Msg(); got != "line 3 has 9 fields" {
		t.Fatalf("unexpected invalid format msg: %q", got)
	}
}

func TestNewValidation(t *testing.T) {
	err := NewValidation(map[string]string{"start": "required"}).(*Error)
	if got := err.Fields()["start"]; got != "required" {
		t.Fatalf("unexpected field detail: %q", got)
	}
	if got := err.StatusCode(); got != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", got)
	}
}

func TestErrorFallbackMessages(t *testing.T) {
	cases := map[Type]string{
		TypeValidation: "Validation violation",
		TypeBusiness:   "Business rule violation",
		TypeServer:     "Internal error",
	}
	for typ, want := range cases {
		if got := newError(nil, "", typ, CodeInternal).Error(); got != want {
			t.Fatalf("fallback for %s: expected %q, got %q", typ, want, got)
		}
	}
}

func TestErrorStringIncludesDetails(t *testing.T) {
	str := NewBusiness("dataset is still processing", CodeConflict).(*Error).String()
	for _, want := range []string{"ERROR_TYPE_BUSINESS", "ERROR_CODE_CONFLICT", "still processing"} {
		if !strings.Contains(str, want) {
			t.Fatalf("expected %q in %q", want, str)
		}
	}
}
