package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestBody_CanonicalShape(t *testing.T) {
	body := Body(500, "boom", nil)

	if body["error"] != "Internal Server Error" {
		t.Errorf("error = %v, want Internal Server Error", body["error"])
	}
	if body["message"] != "boom" {
		t.Errorf("message = %v, want boom", body["message"])
	}
	if body["statusCode"] != 500 {
		t.Errorf("statusCode = %v, want 500", body["statusCode"])
	}
	if len(body) != 3 {
		t.Errorf("expected exactly 3 fields, got %d", len(body))
	}
}

func TestBody_Extension(t *testing.T) {
	body := Body(404, "missing", map[string]any{
		"requestId": "req-1",
		"error":     "must not shadow",
	})

	if body["requestId"] != "req-1" {
		t.Errorf("requestId = %v, want req-1", body["requestId"])
	}
	// Reserved fields win over extension keys.
	if body["error"] != "Not Found" {
		t.Errorf("error = %v, want Not Found", body["error"])
	}
}

func TestReasonPhrase(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "OK"},
		{404, "Not Found"},
		{500, "Internal Server Error"},
		{999, "Unknown Error"},
	}

	for _, tt := range tests {
		if got := ReasonPhrase(tt.code); got != tt.want {
			t.Errorf("ReasonPhrase(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestFault_Error(t *testing.T) {
	f := New(http.StatusNotFound, "no such thing")
	if got := f.Error(); got != "Not Found: no such thing" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFault_Body(t *testing.T) {
	f := NotFound("missing")
	body, ok := f.Body().(map[string]any)
	if !ok {
		t.Fatalf("default body is %T, want map", f.Body())
	}
	if body["statusCode"] != 404 {
		t.Errorf("statusCode = %v, want 404", body["statusCode"])
	}

	payload := map[string]string{"msg": "missing"}
	if got := f.WithPayload(payload).Body(); got == nil {
		t.Fatal("explicit payload dropped")
	} else if m, ok := got.(map[string]string); !ok || m["msg"] != "missing" {
		t.Errorf("Body() = %v, want explicit payload", got)
	}
}

func TestAs(t *testing.T) {
	inner := BadRequest("nope")
	wrapped := fmt.Errorf("handler: %w", inner)

	f, ok := As(wrapped)
	if !ok {
		t.Fatal("expected fault in chain")
	}
	if f != inner {
		t.Error("expected the original fault")
	}

	if _, ok := As(errors.New("plain")); ok {
		t.Error("plain error must not match")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("db down")
	f := Wrap(http.StatusServiceUnavailable, cause)

	if f.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", f.StatusCode)
	}
	if !errors.Is(f, cause) {
		t.Error("expected cause to be preserved")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name string
		f    *Fault
		want int
	}{
		{"BadRequest", BadRequest("x"), 400},
		{"Unauthorized", Unauthorized("x"), 401},
		{"Forbidden", Forbidden("x"), 403},
		{"NotFound", NotFound("x"), 404},
		{"TooManyRequests", TooManyRequests("x"), 429},
		{"Internal", Internal("x"), 500},
		{"ServiceUnavailable", ServiceUnavailable("x"), 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.f.StatusCode != tt.want {
				t.Errorf("StatusCode = %d, want %d", tt.f.StatusCode, tt.want)
			}
		})
	}
}

func TestFault_WithHeader(t *testing.T) {
	f := TooManyRequests("slow down").WithHeader("Retry-After", "30")
	if f.Headers["Retry-After"] != "30" {
		t.Errorf("Headers = %v", f.Headers)
	}
}
