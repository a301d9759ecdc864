package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind categorizes a failed remote fetch.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindInternalServerError
	KindServiceUnavailable
)

var kindNames = map[ErrorKind]string{
	KindUnknown:             "unknown",
	KindUnauthorized:        "unauthorized",
	KindNotFound:            "not_found",
	KindInternalServerError: "internal_server_error",
	KindServiceUnavailable:  "service_unavailable",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// MarshalText renders the kind by name so JSON consumers see "not_found"
// rather than a number.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInternalServerError = errors.New("internal server error")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrUnknown             = errors.New("unknown error")
)

var kindSentinels = map[ErrorKind]error{
	KindUnknown:             ErrUnknown,
	KindUnauthorized:        ErrUnauthorized,
	KindNotFound:            ErrNotFound,
	KindInternalServerError: ErrInternalServerError,
	KindServiceUnavailable:  ErrServiceUnavailable,
}

// FetchError is the typed failure delivered through a sync. Message is only
// meaningful for KindUnknown, where it carries the transport's diagnostic.
type FetchError struct {
	Kind    ErrorKind
	Message string
}

func (e *FetchError) Error() string {
	if e.Kind == KindUnknown {
		return fmt.Sprintf("Unknown error occurred: %s", e.Message)
	}
	return kindSentinels[e.Kind].Error()
}

// Is lets errors.Is match a FetchError against the kind sentinels.
func (e *FetchError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func (e *FetchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    ErrorKind `json:"kind"`
		Message string    `json:"message,omitempty"`
	}{e.Kind, e.Message})
}

// HTTPFailure is returned by a Client when the remote answered with a
// non-2xx status.
type HTTPFailure struct {
	StatusCode int
	Reason     string
}

func (f *HTTPFailure) Error() string {
	return fmt.Sprintf("remote responded %d %s", f.StatusCode, f.Reason)
}

// Classify maps a client error onto the fixed error taxonomy. Statuses
// outside the table, and errors that carry no status at all, become
// KindUnknown with a diagnostic message.
func Classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	var hf *HTTPFailure
	if !errors.As(err, &hf) {
		return &FetchError{Kind: KindUnknown, Message: err.Error()}
	}

	switch hf.StatusCode {
	case http.StatusUnauthorized:
		return &FetchError{Kind: KindUnauthorized}
	case http.StatusNotFound:
		return &FetchError{Kind: KindNotFound}
	case http.StatusInternalServerError:
		return &FetchError{Kind: KindInternalServerError}
	case http.StatusServiceUnavailable:
		return &FetchError{Kind: KindServiceUnavailable}
	default:
		reason := hf.Reason
		if reason == "" {
			reason = http.StatusText(hf.StatusCode)
		}
		return &FetchError{Kind: KindUnknown, Message: reason}
	}
}
