package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindRateLimited:  http.StatusTooManyRequests,
		KindInternal:     http.StatusInternalServerError,
		Kind("bogus"):    http.StatusInternalServerError,
	}
	for k, want := range cases {
		if got := Status(k); got != want {
			t.Errorf("Status(%q) = %d, want %d", k, got, want)
		}
	}
}

func TestFromTyped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NotFound("loop not found"))
	e := From(wrapped)
	if e.Kind != KindNotFound {
		t.Errorf("kind = %q, want %q", e.Kind, KindNotFound)
	}
	if e.Message != "loop not found" {
		t.Errorf("message = %q", e.Message)
	}
}

func TestFromUntypedHidesCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	e := From(cause)
	if e.Kind != KindInternal {
		t.Errorf("kind = %q, want internal", e.Kind)
	}
	if e.Message != "internal server error" {
		t.Errorf("message = %q leaks detail", e.Message)
	}
	if !errors.Is(e, cause) {
		t.Error("cause should remain reachable for logging")
	}
}

func TestUnauthorizedMessage(t *testing.T) {
	if got := Unauthorized().Message; got != "Unauthorized" {
		t.Errorf("message = %q, want Unauthorized", got)
	}
}
