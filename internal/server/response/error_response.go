package response

// error_response.go maps errors from the HTTP layer, the login flow and the network clients
// to the JSON error envelope returned to API callers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/auth"
	"github.com/information-sharing-networks/dbc-connect/internal/directory"
	"github.com/information-sharing-networks/dbc-connect/internal/keystore"
	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

// ErrorResponse is the error envelope returned by the API
type ErrorResponse struct {

	// The HTTP method used to make the request e.g. GET, POST, etc
	HTTPMethod string `json:"httpMethod"`

	// The URI that was requested
	RequestURI string `json:"requestUri"`

	// The HTTP status code returned
	StatusCode int `json:"statusCode"`

	// A standard short description corresponding to the HTTP status code
	StatusCodeText string `json:"statusCodeText"`

	// A long description corresponding to the HTTP status code with additional information
	StatusCodeMessage string `json:"statusCodeMessage,omitempty"`

	// The request id, also logged server side
	ProviderCorrelationReference string `json:"providerCorrelationReference,omitempty"`

	// The DateTime corresponding to the error occurring
	ErrorDateTime string `json:"errorDateTime"`

	// An array of errors providing more detail about the root cause
	Errors []DetailedError `json:"errors"`
}

// DetailedError is one entry in ErrorResponse.Errors
type DetailedError struct {
	// 7000-7999 for technical errors, 8000-8999 for functional errors
	ErrorCode        ErrorCode `json:"errorCode"`
	Property         string    `json:"property,omitempty"`
	Value            string    `json:"value,omitempty"`
	ErrorCodeText    string    `json:"errorCodeText"`
	ErrorCodeMessage string    `json:"errorCodeMessage"`
}

// MapErrorToResponse maps err to the error envelope and the HTTP status code.
//
// Upstream response bodies are not returned to the caller; the full error is logged by RespondWithErrorResponse.
func MapErrorToResponse(err error, r *http.Request) *ErrorResponse {
	requestID := middleware.GetReqID(r.Context())

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return errorResponseFromAPI(apiErr, r, requestID)
	}

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return errorResponseFromAuth(authErr, r, requestID)
	}

	switch {
	case errors.Is(err, session.ErrNotFound):
		return newErrorResponse(r, requestID, http.StatusUnauthorized, ErrCodeUnauthenticated, "Session expired", "session not found or expired")
	case errors.Is(err, participant.ErrInvalidBusinessNumber), errors.Is(err, participant.ErrInvalidURN):
		return newErrorResponse(r, requestID, http.StatusBadRequest, ErrCodeInvalidParticipant, "Invalid participant", err.Error())
	case errors.Is(err, keystore.ErrKeyNotFound):
		return newErrorResponse(r, requestID, http.StatusNotFound, ErrCodeKeyError, "Public key file not found", "no public key file is available for this participant")
	case errors.Is(err, directory.ErrNoKeys), errors.Is(err, apiclient.ErrNotFound):
		return newErrorResponse(r, requestID, http.StatusNotFound, ErrCodeNotFound, "Not found", "the network service has no matching record")
	case errors.Is(err, apiclient.ErrUserTokenRejected):
		return newErrorResponse(r, requestID, http.StatusUnauthorized, ErrCodeUnauthenticated, "Session token rejected", "the network service rejected the session token, sign in again")
	}

	switch apiclient.KindOf(err) {
	case apiclient.KindTransport:
		return newErrorResponse(r, requestID, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable, "Network service unavailable", "the network service could not be reached")
	case apiclient.KindStatus, apiclient.KindDecode:
		return newErrorResponse(r, requestID, http.StatusBadGateway, ErrCodeUpstreamError, "Network service error", "the network service returned an unusable response")
	}

	// well-formed upstream response without the expected field
	if errors.Is(err, apiclient.ErrNoResult) {
		return newErrorResponse(r, requestID, http.StatusBadGateway, ErrCodeUpstreamError, "Network service error", err.Error())
	}

	reqLogger := logger.ContextRequestLogger(r.Context())
	reqLogger.Error("BUG: Unmapped error type in MapErrorToResponse",
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	return newErrorResponse(r, requestID, http.StatusInternalServerError, ErrCodeInternalError, "Internal Error", "An internal error occurred")
}

// errorResponseFromAPI maps errors raised by the handlers and middleware
func errorResponseFromAPI(err *APIError, r *http.Request, requestID string) *ErrorResponse {
	var statusCode int
	var errorCodeText string

	switch err.Code() {
	case ErrCodeMalformedRequest:
		statusCode = http.StatusBadRequest
		errorCodeText = "Malformed request"
	case ErrCodeRateLimitExceeded:
		statusCode = http.StatusTooManyRequests
		errorCodeText = "Rate limit exceeded"
	case ErrCodeRequestTooLarge:
		statusCode = http.StatusRequestEntityTooLarge
		errorCodeText = "Request too large"
	case ErrCodeUnauthenticated:
		statusCode = http.StatusUnauthorized
		errorCodeText = "Unauthenticated"
	case ErrCodeNotFound:
		statusCode = http.StatusNotFound
		errorCodeText = "Not found"
	default:
		// internal errors do not expose the message
		return newErrorResponse(r, requestID, http.StatusInternalServerError, ErrCodeInternalError, "Internal Error", "An internal error occurred")
	}

	return newErrorResponse(r, requestID, statusCode, err.Code(), errorCodeText, err.Error())
}

// errorResponseFromAuth maps login failures. Token problems are 401, provisioning problems 502.
func errorResponseFromAuth(err *auth.AuthError, r *http.Request, requestID string) *ErrorResponse {
	if !err.Unauthenticated() {
		return newErrorResponse(r, requestID, http.StatusBadGateway, ErrCodeProvisioningFailed, "Provisioning failed", "the account could not be provisioned, try again later")
	}

	var errorCodeText string
	switch err.Code() {
	case auth.CodeInvalidIssuer:
		errorCodeText = "Invalid issuer"
	case auth.CodeInvalidAudience:
		errorCodeText = "Invalid audience"
	case auth.CodeTokenExpired:
		errorCodeText = "Token expired"
	case auth.CodeMissingClaim:
		errorCodeText = "Missing claim"
	case auth.CodeAuthenticationFailed:
		errorCodeText = "Authentication failed"
	default:
		errorCodeText = "Invalid token"
	}

	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   http.StatusUnauthorized,
		StatusCodeText:               http.StatusText(http.StatusUnauthorized),
		StatusCodeMessage:            errorCodeText,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        ErrCodeInvalidToken,
				Property:         "token",
				Value:            string(err.Code()),
				ErrorCodeText:    errorCodeText,
				ErrorCodeMessage: err.Error(),
			},
		},
	}
}

func newErrorResponse(r *http.Request, requestID string, statusCode int, code ErrorCode, errorCodeText, message string) *ErrorResponse {
	return &ErrorResponse{
		HTTPMethod:                   r.Method,
		RequestURI:                   r.RequestURI,
		StatusCode:                   statusCode,
		StatusCodeText:               http.StatusText(statusCode),
		StatusCodeMessage:            errorCodeText,
		ProviderCorrelationReference: requestID,
		ErrorDateTime:                time.Now().UTC().Format(time.RFC3339),
		Errors: []DetailedError{
			{
				ErrorCode:        code,
				ErrorCodeText:    errorCodeText,
				ErrorCodeMessage: message,
			},
		},
	}
}
