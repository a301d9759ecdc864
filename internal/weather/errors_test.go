package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantMsg  string
		sentinel error
	}{
		{"unauthorized", &HTTPFailure{StatusCode: 401, Reason: "Unauthorized"}, KindUnauthorized, "", ErrUnauthorized},
		{"not found", &HTTPFailure{StatusCode: 404, Reason: "Not Found"}, KindNotFound, "", ErrNotFound},
		{"internal", &HTTPFailure{StatusCode: 500, Reason: "Internal Server Error"}, KindInternalServerError, "", ErrInternalServerError},
		{"unavailable", &HTTPFailure{StatusCode: 503, Reason: "Service Unavailable"}, KindServiceUnavailable, "", ErrServiceUnavailable},
		{"unmapped status keeps reason", &HTTPFailure{StatusCode: 418, Reason: "I'm a teapot"}, KindUnknown, "I'm a teapot", ErrUnknown},
		{"unmapped status without reason", &HTTPFailure{StatusCode: 429}, KindUnknown, "Too Many Requests", ErrUnknown},
		{"wrapped failure", fmt.Errorf("fetch: %w", &HTTPFailure{StatusCode: 404}), KindNotFound, "", ErrNotFound},
		{"transport error", errors.New("dial tcp: connection refused"), KindUnknown, "dial tcp: connection refused", ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", got.Message, tt.wantMsg)
			}
			if !errors.Is(got, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", got, tt.sentinel)
			}
		})
	}
}

func TestClassify_PassesFetchErrorThrough(t *testing.T) {
	orig := &FetchError{Kind: KindServiceUnavailable}
	if got := Classify(fmt.Errorf("wrapped: %w", orig)); got != orig {
		t.Errorf("got %v, want the original FetchError", got)
	}
}

func TestFetchError_Error(t *testing.T) {
	unknown := &FetchError{Kind: KindUnknown, Message: "timeout"}
	if got, want := unknown.Error(), "Unknown error occurred: timeout"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	notFound := &FetchError{Kind: KindNotFound}
	if got, want := notFound.Error(), "not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestFetchError_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(&FetchError{Kind: KindNotFound})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"kind":"not_found"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}

	b, err = json.Marshal(&FetchError{Kind: KindUnknown, Message: "boom"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"kind":"unknown","message":"boom"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}
