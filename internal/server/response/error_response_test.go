package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/auth"
	"github.com/information-sharing-networks/dbc-connect/internal/directory"
	"github.com/information-sharing-networks/dbc-connect/internal/gateway"
	"github.com/information-sharing-networks/dbc-connect/internal/keystore"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

// sanity check that the error codes are in the correct range
func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		errCode  ErrorCode
		wantCode int
	}{
		{"malformed_request", ErrCodeMalformedRequest, 7001},
		{"internal_error", ErrCodeInternalError, 7002},
		{"rate_limit", ErrCodeRateLimitExceeded, 7003},
		{"request_too_large", ErrCodeRequestTooLarge, 7004},
		{"upstream_unavailable", ErrCodeUpstreamUnavailable, 7005},
		{"upstream_error", ErrCodeUpstreamError, 7006},
		{"key_error", ErrCodeKeyError, 7007},
		{"invalid_token", ErrCodeInvalidToken, 8001},
		{"provisioning_failed", ErrCodeProvisioningFailed, 8002},
		{"unauthenticated", ErrCodeUnauthenticated, 8003},
		{"not_found", ErrCodeNotFound, 8004},
		{"invalid_participant", ErrCodeInvalidParticipant, 8005},
	}
	for _, tt := range tests {
		if int(tt.errCode) != tt.wantCode {
			t.Errorf("%s: got %d, want %d", tt.name, tt.errCode, tt.wantCode)
		}
	}
}

func TestMapErrorToResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"malformed request", NewMalformedRequestError("abn is required"), http.StatusBadRequest, ErrCodeMalformedRequest},
		{"internal", WrapInternalError(errors.New("boom"), "failed"), http.StatusInternalServerError, ErrCodeInternalError},
		{"rate limit", NewRateLimitError("slow down"), http.StatusTooManyRequests, ErrCodeRateLimitExceeded},
		{"no session", NewUnauthenticatedError("sign in"), http.StatusUnauthorized, ErrCodeUnauthenticated},
		{"expired session", session.ErrNotFound, http.StatusUnauthorized, ErrCodeUnauthenticated},
		{"invalid issuer", fmt.Errorf("login: %w", auth.ErrInvalidIssuer), http.StatusUnauthorized, ErrCodeInvalidToken},
		{"expired token", auth.ErrTokenExpired, http.StatusUnauthorized, ErrCodeInvalidToken},
		{"provisioning failed", auth.ErrProvisioningFailed, http.StatusBadGateway, ErrCodeProvisioningFailed},
		{"invalid abn", fmt.Errorf("lookup: %w", participant.ErrInvalidBusinessNumber), http.StatusBadRequest, ErrCodeInvalidParticipant},
		{"key file missing", keystore.ErrKeyNotFound, http.StatusNotFound, ErrCodeKeyError},
		{"no published keys", directory.ErrNoKeys, http.StatusNotFound, ErrCodeNotFound},
		{
			"upstream 404",
			&apiclient.RequestError{Kind: apiclient.KindStatus, Method: "GET", URL: "http://dir/x", StatusCode: 404},
			http.StatusNotFound, ErrCodeNotFound,
		},
		{
			"upstream 500",
			fmt.Errorf("list: %w", &apiclient.RequestError{Kind: apiclient.KindStatus, Method: "GET", URL: "http://dir/x", StatusCode: 500}),
			http.StatusBadGateway, ErrCodeUpstreamError,
		},
		{
			"upstream not json",
			&apiclient.RequestError{Kind: apiclient.KindDecode, Method: "GET", URL: "http://dir/x", StatusCode: 200, Err: errors.New("invalid character")},
			http.StatusBadGateway, ErrCodeUpstreamError,
		},
		{
			"upstream unreachable",
			&apiclient.RequestError{Kind: apiclient.KindTransport, Method: "GET", URL: "http://dir/x", Err: errors.New("connection refused")},
			http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable,
		},
		{"missing endpoint id", gateway.ErrNoEndpointID, http.StatusBadGateway, ErrCodeUpstreamError},
		{"unmapped", errors.New("something else"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/participants/51824753556/keys", nil)

			got := MapErrorToResponse(tt.err, req)
			if got.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.wantStatus)
			}
			if len(got.Errors) != 1 {
				t.Fatalf("expected 1 detailed error, got %d", len(got.Errors))
			}
			if got.Errors[0].ErrorCode != tt.wantCode {
				t.Errorf("ErrorCode = %d, want %d", got.Errors[0].ErrorCode, tt.wantCode)
			}
			if got.StatusCodeText != http.StatusText(tt.wantStatus) {
				t.Errorf("StatusCodeText = %q", got.StatusCodeText)
			}
		})
	}
}

func TestMapErrorToResponseHidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	got := MapErrorToResponse(WrapInternalError(errors.New("password=secret"), "db failed"), req)
	if got.Errors[0].ErrorCodeMessage != "An internal error occurred" {
		t.Errorf("internal error message leaked: %q", got.Errors[0].ErrorCodeMessage)
	}

	upstream := &apiclient.RequestError{Kind: apiclient.KindStatus, Method: "GET", URL: "http://dir/x", StatusCode: 500, Body: "stack trace"}
	got = MapErrorToResponse(upstream, req)
	if got.Errors[0].ErrorCodeMessage == upstream.Error() {
		t.Errorf("upstream body leaked: %q", got.Errors[0].ErrorCodeMessage)
	}
}

func TestRespondWithErrorResponse(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rr := httptest.NewRecorder()

	RespondWithErrorResponse(rr, req, auth.ErrInvalidAudience)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if body.HTTPMethod != http.MethodPost || body.RequestURI != "/login" {
		t.Errorf("unexpected request echo: %s %s", body.HTTPMethod, body.RequestURI)
	}
	if body.Errors[0].Value != string(auth.CodeInvalidAudience) {
		t.Errorf("Value = %q, want %q", body.Errors[0].Value, auth.CodeInvalidAudience)
	}
}
