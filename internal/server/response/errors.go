package response

// errors.go defines the error codes returned in API error responses

import "fmt"

// APIError is an error raised by the HTTP layer itself (bad input, missing session, rate limits).
// Errors from the network clients and the login flow are mapped in MapErrorToResponse.
type APIError struct {
	// code is the API error code
	code ErrorCode

	// message is a human-readable error message
	message string

	// wrapped is the optional underlying error
	wrapped error
}

func (e *APIError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *APIError) Code() ErrorCode { return e.code }
func (e *APIError) Unwrap() error   { return e.wrapped }

// ErrorCode is used in errors returned by the API.
//
//   - 7000-7999 technical errors: the request could not be processed because of a problem with the supplied data or a dependency.
//   - 8000-8999 functional errors: the request is technically valid but the user is not allowed to make it or the target does not exist.
type ErrorCode int

const (
	// ErrCodeMalformedRequest is used when a parameter, form field or JSON body is missing or invalid
	ErrCodeMalformedRequest ErrorCode = 7001

	// ErrCodeInternalError is used when an internal server error occurs
	ErrCodeInternalError ErrorCode = 7002

	// ErrCodeRateLimitExceeded is used when the rate limit is exceeded (middleware only)
	ErrCodeRateLimitExceeded ErrorCode = 7003

	// ErrCodeRequestTooLarge is used when the request body is too large (middleware only)
	ErrCodeRequestTooLarge ErrorCode = 7004

	// ErrCodeUpstreamUnavailable is used when a network service could not be reached
	ErrCodeUpstreamUnavailable ErrorCode = 7005

	// ErrCodeUpstreamError is used when a network service returned an error or an unusable response
	ErrCodeUpstreamError ErrorCode = 7006

	// ErrCodeKeyError is used when the participant's local public key file is missing
	ErrCodeKeyError ErrorCode = 7007

	// ErrCodeInvalidToken is used when the identity token is rejected at login
	ErrCodeInvalidToken ErrorCode = 8001

	// ErrCodeProvisioningFailed is used when the customer or account could not be created at login
	ErrCodeProvisioningFailed ErrorCode = 8002

	// ErrCodeUnauthenticated is used when an API request has no valid session
	ErrCodeUnauthenticated ErrorCode = 8003

	// ErrCodeNotFound is used when the requested participant, key or message does not exist
	ErrCodeNotFound ErrorCode = 8004

	// ErrCodeInvalidParticipant is used when a business number or participant identifier is malformed
	ErrCodeInvalidParticipant ErrorCode = 8005
)

func NewMalformedRequestError(msg string) *APIError {
	return &APIError{code: ErrCodeMalformedRequest, message: msg}
}

func WrapMalformedRequestError(err error, msg string) *APIError {
	return &APIError{code: ErrCodeMalformedRequest, message: msg, wrapped: err}
}

func WrapInternalError(err error, msg string) *APIError {
	return &APIError{code: ErrCodeInternalError, message: msg, wrapped: err}
}

func NewRateLimitError(msg string) *APIError {
	return &APIError{code: ErrCodeRateLimitExceeded, message: msg}
}

func NewRequestTooLargeError(msg string) *APIError {
	return &APIError{code: ErrCodeRequestTooLarge, message: msg}
}

func NewUnauthenticatedError(msg string) *APIError {
	return &APIError{code: ErrCodeUnauthenticated, message: msg}
}

func NewNotFoundError(msg string) *APIError {
	return &APIError{code: ErrCodeNotFound, message: msg}
}
