package auth

import (
	"fmt"
)

// ErrorCode classifies login failures
type ErrorCode string

const (
	// CodeTokenMalformed is used when the token is empty, cannot be decoded or fails signature verification
	CodeTokenMalformed ErrorCode = "token_malformed"

	// CodeInvalidIssuer is used when the iss claim does not match the configured identity provider
	CodeInvalidIssuer ErrorCode = "invalid_issuer"

	// CodeInvalidAudience is used when the aud claim is missing or does not contain the expected audience
	CodeInvalidAudience ErrorCode = "invalid_audience"

	// CodeTokenExpired is used when the token is expired or not yet valid
	CodeTokenExpired ErrorCode = "token_expired"

	// CodeMissingClaim is used when the abn or party identifier claims are missing or invalid
	CodeMissingClaim ErrorCode = "missing_claim"

	// CodeProvisioningFailed is used when the remote customer or the local account could not be created
	CodeProvisioningFailed ErrorCode = "provisioning_failed"

	// CodeAuthenticationFailed is used when the stored account does not match the token's business number
	CodeAuthenticationFailed ErrorCode = "authentication_failed"
)

// Sentinels for errors.Is. Errors returned by this package are *AuthError values carrying one of these codes.
var (
	ErrTokenMalformed       = &AuthError{code: CodeTokenMalformed, message: "token could not be parsed"}
	ErrInvalidIssuer        = &AuthError{code: CodeInvalidIssuer, message: "token issuer is not trusted"}
	ErrInvalidAudience      = &AuthError{code: CodeInvalidAudience, message: "token audience is not valid"}
	ErrTokenExpired         = &AuthError{code: CodeTokenExpired, message: "token is expired or not yet valid"}
	ErrMissingClaim         = &AuthError{code: CodeMissingClaim, message: "token is missing a required claim"}
	ErrProvisioningFailed   = &AuthError{code: CodeProvisioningFailed, message: "account provisioning failed"}
	ErrAuthenticationFailed = &AuthError{code: CodeAuthenticationFailed, message: "authentication failed"}
)

// AuthError is returned for every rejected login
type AuthError struct {
	code    ErrorCode
	message string
	wrapped error
}

func (e *AuthError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.message, e.wrapped)
	}
	return e.message
}

func (e *AuthError) Code() ErrorCode { return e.code }
func (e *AuthError) Unwrap() error   { return e.wrapped }

// Is matches any AuthError with the same code, so errors.Is(err, ErrInvalidIssuer) works on wrapped errors
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.code == e.code
}

// Unauthenticated reports whether the failure was caused by the presented token
// (as opposed to a failure talking to the identity provider or the database)
func (e *AuthError) Unauthenticated() bool {
	return e.code != CodeProvisioningFailed
}

func newAuthError(code ErrorCode, message string, wrapped error) *AuthError {
	return &AuthError{code: code, message: message, wrapped: wrapped}
}
