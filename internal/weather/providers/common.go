package providers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
)

var (
	errServerStatus = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// maxBodyBytes bounds how much of a response body is ever read.
const maxBodyBytes = 1 << 20

// doRequest executes exactly one request. When cb is non-nil the call goes
// through the circuit breaker, which counts transport failures and 5xx
// answers; an open breaker fails fast without touching the network.
func doRequest(client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	if cb == nil {
		return client.Do(req)
	}

	var resp *http.Response
	_, err := cb.Execute(func() (interface{}, error) {
		r, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		resp = r
		if r.StatusCode >= 500 {
			return nil, errServerStatus
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	if resp == nil {
		return nil, err
	}
	return resp, nil
}

// reasonPhrase extracts "Not Found" from a status line like "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// drain discards the rest of the body so the connection can be reused.
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBodyBytes))
	_ = body.Close()
}
