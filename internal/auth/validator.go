package auth

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// DefaultAcceptableSkew is the clock skew allowed when checking exp and nbf
const DefaultAcceptableSkew = 30 * time.Second

// Validator parses identity tokens and checks the issuer, audience and lifetime claims.
//
// When keys is nil the signature is not verified and the token is trusted as delivered by the
// identity provider's redirect. Configure a KeySetProvider to verify signatures.
type Validator struct {
	issuer   string
	audience string
	skew     time.Duration
	keys     KeySetProvider
	now      func() time.Time
}

// NewValidator returns a validator for tokens issued by issuer. audience may be empty,
// in which case the token must still declare a non-empty aud claim.
func NewValidator(issuer, audience string, keys KeySetProvider) *Validator {
	return &Validator{
		issuer:   issuer,
		audience: audience,
		skew:     DefaultAcceptableSkew,
		keys:     keys,
		now:      time.Now,
	}
}

// WithClock sets the time used to check the token lifetime
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Verifying reports whether token signatures are checked
func (v *Validator) Verifying() bool {
	return v.keys != nil
}

// Parse decodes and validates raw. Every failure is an *AuthError.
func (v *Validator) Parse(ctx context.Context, raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, newAuthError(CodeTokenMalformed, "token is empty", nil)
	}

	tok, err := v.parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	if err := v.validate(tok); err != nil {
		return nil, err
	}

	// private claims are read from the signed payload so their key order is the issuer's
	msg, err := jws.Parse([]byte(raw))
	if err != nil {
		return nil, newAuthError(CodeTokenMalformed, "token payload could not be read", err)
	}

	return claimsFromToken(tok, msg.Payload())
}

func (v *Validator) parse(ctx context.Context, raw string) (jwt.Token, error) {
	if v.keys == nil {
		tok, err := jwt.ParseInsecure([]byte(raw))
		if err != nil {
			return nil, newAuthError(CodeTokenMalformed, "token could not be parsed", err)
		}
		return tok, nil
	}

	set, err := v.keys.KeySet(ctx)
	if err != nil {
		return nil, newAuthError(CodeProvisioningFailed, "token signing keys are unavailable", err)
	}

	tok, err := jwt.Parse([]byte(raw), jwt.WithKeySet(set), jwt.WithValidate(false))
	if err != nil {
		return nil, newAuthError(CodeTokenMalformed, "token could not be verified", err)
	}
	return tok, nil
}

func (v *Validator) validate(tok jwt.Token) error {
	opts := []jwt.ValidateOption{
		jwt.WithIssuer(v.issuer),
		jwt.WithAcceptableSkew(v.skew),
		jwt.WithClock(jwt.ClockFunc(v.now)),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	if err := jwt.Validate(tok, opts...); err != nil {
		switch {
		case errors.Is(err, jwt.InvalidIssuerError()):
			return newAuthError(CodeInvalidIssuer, "token issuer is not trusted", err)
		case errors.Is(err, jwt.InvalidAudienceError()):
			return newAuthError(CodeInvalidAudience, "token audience is not valid", err)
		case errors.Is(err, jwt.TokenExpiredError()), errors.Is(err, jwt.TokenNotYetValidError()):
			return newAuthError(CodeTokenExpired, "token is expired or not yet valid", err)
		default:
			return newAuthError(CodeTokenMalformed, "token claims are invalid", err)
		}
	}

	// without a configured audience the token must at least declare one
	aud, _ := tok.Audience()
	if v.audience == "" && !slices.ContainsFunc(aud, func(a string) bool { return a != "" }) {
		return newAuthError(CodeInvalidAudience, "token does not declare an audience", nil)
	}
	return nil
}
