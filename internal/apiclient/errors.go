package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoResult matches every *RequestError. Use it when the caller only needs to know the call produced nothing usable.
	ErrNoResult = errors.New("no result")

	// ErrNotFound matches a *RequestError for a 404 response
	ErrNotFound = errors.New("not found")

	// ErrUserTokenRejected matches a *RequestError for a 401 or 403 response to a call made with a UserToken.
	// Rejections of the operational credential do not match: signing in again would not help.
	ErrUserTokenRejected = errors.New("user token rejected")
)

// Kind classifies request failures so callers can tell "unreachable" from "reached but unusable"
type Kind int

const (
	// KindTransport covers request construction, file access and network errors
	KindTransport Kind = iota + 1

	// KindStatus is a non-2xx response
	KindStatus

	// KindDecode is a 2xx response whose body is not JSON (an empty body included)
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// RequestError is returned by Executor.Do for every failed call
type RequestError struct {
	Kind   Kind
	Method string
	URL    string

	// StatusCode is set for KindStatus and KindDecode
	StatusCode int

	// Body is the start of the response body (KindStatus only)
	Body string

	Err error

	// withUserToken is set when the request carried a UserToken
	withUserToken bool
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Body != "" {
			return fmt.Sprintf("%s %s: unexpected status %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
		}
		return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	default:
		return fmt.Sprintf("%s %s: %s error: %v", e.Method, e.URL, e.Kind, e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// Is reports ErrNoResult for every request error, ErrNotFound for 404 responses and
// ErrUserTokenRejected for 401/403 responses to user token calls
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrNoResult:
		return true
	case ErrNotFound:
		return e.Kind == KindStatus && e.StatusCode == http.StatusNotFound
	case ErrUserTokenRejected:
		return e.Kind == KindStatus && e.withUserToken &&
			(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
	}
	return false
}

// KindOf returns the kind of a request error in err's chain, or 0 if there is none
func KindOf(err error) Kind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return 0
}
