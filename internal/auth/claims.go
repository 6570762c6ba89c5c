package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gowebpki/jcs"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

// ABNClaim is the private claim holding the user's business number
const ABNClaim = "abn"

// Claims is the validated subset of the identity token used to provision and sign in a user
type Claims struct {
	ABN       string
	PartyIDs  []participant.PartyIdentifier
	Issuer    string
	Audience  []string
	Subject   string
	ExpiresAt time.Time

	// primary is the first entry of the party identifier claim, in token order
	primary []participant.PartyIdentifier

	// payload is the token's JSON claim set as it was signed
	payload []byte
}

// UserURN is the party identifier claim name followed by ":scheme::value" for every pair in
// the claim's first entry, e.g.
// urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556
func (c *Claims) UserURN() string {
	if len(c.primary) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(participant.PartyIDClaim)
	for _, id := range c.primary {
		b.WriteString(":" + id.Scheme + participant.Separator + id.Value)
	}
	return b.String()
}

// Canonical returns the full claim set as RFC 8785 canonical JSON
func (c *Claims) Canonical() ([]byte, error) {
	return jcs.Transform(c.payload)
}

// claimsFromToken extracts the required claims from the token's payload.
// Standard claims have already been validated on tok.
func claimsFromToken(tok jwt.Token, payload []byte) (*Claims, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, newAuthError(CodeTokenMalformed, "token claims are not a JSON object", err)
	}

	c := &Claims{payload: payload}
	c.Issuer, _ = tok.Issuer()
	c.Audience, _ = tok.Audience()
	c.Subject, _ = tok.Subject()
	c.ExpiresAt, _ = tok.Expiration()

	rawABN, ok := fields[ABNClaim]
	if !ok {
		return nil, newAuthError(CodeMissingClaim, "abn claim is missing", nil)
	}
	if err := json.Unmarshal(rawABN, &c.ABN); err != nil {
		return nil, newAuthError(CodeMissingClaim, "abn claim must be a string", err)
	}
	if err := participant.ValidateBusinessNumber(c.ABN); err != nil {
		return nil, newAuthError(CodeMissingClaim, "abn claim is invalid", err)
	}

	rawIDs, ok := fields[participant.PartyIDClaim]
	if !ok {
		return nil, newAuthError(CodeMissingClaim, fmt.Sprintf("%s claim is missing", participant.PartyIDClaim), nil)
	}
	entries, err := parsePartyIDs(rawIDs)
	if err != nil {
		return nil, newAuthError(CodeMissingClaim, fmt.Sprintf("%s claim is invalid", participant.PartyIDClaim), err)
	}
	c.primary = entries[0]
	for _, entry := range entries {
		c.PartyIDs = append(c.PartyIDs, entry...)
	}

	return c, nil
}

// parsePartyIDs returns the party identifiers of each claim entry in token order.
//
// The claim is a list whose entries are either {"scheme": "0151", "value": "51824753556"} objects
// or maps of scheme code to value such as {"0151": "51824753556"}. A single map that is not
// wrapped in a list is read as a one entry list.
func parsePartyIDs(raw json.RawMessage) ([][]participant.PartyIdentifier, error) {
	raw = bytes.TrimSpace(raw)

	var elements []json.RawMessage
	switch {
	case bytes.HasPrefix(raw, []byte("[")):
		if err := json.Unmarshal(raw, &elements); err != nil {
			return nil, err
		}
	case bytes.HasPrefix(raw, []byte("{")):
		elements = []json.RawMessage{raw}
	default:
		return nil, errors.New("expected a list of party identifiers")
	}

	if len(elements) == 0 {
		return nil, errors.New("no party identifiers")
	}

	entries := make([][]participant.PartyIdentifier, 0, len(elements))
	for i, element := range elements {
		ids, err := parsePartyIDEntry(element)
		if err != nil {
			return nil, fmt.Errorf("party identifier %d: %w", i, err)
		}
		entries = append(entries, ids)
	}
	return entries, nil
}

// parsePartyIDEntry reads one claim entry. Keys are kept in token order.
func parsePartyIDEntry(raw json.RawMessage) ([]participant.PartyIdentifier, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, errors.New("expected an object")
	}

	var pairs []participant.PartyIdentifier
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, err
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("%v: value must be a string", key)
		}
		pairs = append(pairs, participant.PartyIdentifier{Scheme: key.(string), Value: value})
	}
	if len(pairs) == 0 {
		return nil, errors.New("empty object")
	}

	ids := pairs
	if scheme, value, ok := schemeValuePair(pairs); ok {
		ids = []participant.PartyIdentifier{{Scheme: scheme, Value: value}}
	}
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// schemeValuePair reports whether pairs is the {"scheme": ..., "value": ...} form
func schemeValuePair(pairs []participant.PartyIdentifier) (scheme, value string, ok bool) {
	var hasScheme, hasValue bool
	for _, p := range pairs {
		switch p.Scheme {
		case "scheme":
			scheme, hasScheme = p.Value, true
		case "value":
			value, hasValue = p.Value, true
		default:
			return "", "", false
		}
	}
	return scheme, value, hasScheme || hasValue
}
