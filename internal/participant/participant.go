// Package participant builds and parses the participant identifiers used to address the network services.
//
// A participant identifier is the ISO 6523 ABN scheme URN followed by "::" and the business number, e.g.
//
//	urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556
package participant

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PartyIDClaim is the ebcore party id type namespace. It is also the name of the token claim
	// that lists the participant's party identifiers.
	PartyIDClaim = "urn:oasis:names:tc:ebcore:partyid-type:iso6523"

	// ABNSchemeCode is the ISO 6523 code list entry for the Australian Business Number
	ABNSchemeCode = "0151"

	// Scheme is the URN prefix of every ABN participant identifier
	Scheme = PartyIDClaim + ":" + ABNSchemeCode

	// Separator joins the scheme and the business number
	Separator = "::"

	abnLength = 11
)

var (
	ErrInvalidBusinessNumber = errors.New("invalid business number")
	ErrInvalidURN            = errors.New("invalid participant identifier")
)

// ID is a participant identifier built from Scheme and a business number
type ID string

// ToURN concatenates the scheme prefix and n. n is not normalised or validated,
// use NewID for untrusted input.
func ToURN(businessNumber string) ID {
	return ID(Scheme + Separator + businessNumber)
}

// NewID validates the business number shape and returns the participant identifier
func NewID(businessNumber string) (ID, error) {
	if err := ValidateBusinessNumber(businessNumber); err != nil {
		return "", err
	}
	return ToURN(businessNumber), nil
}

// ParseURN checks that s was built by ToURN from a valid business number and returns it as an ID.
func ParseURN(s string) (ID, error) {
	n, ok := strings.CutPrefix(s, Scheme+Separator)
	if !ok {
		return "", fmt.Errorf("%w: %q does not start with %s%s", ErrInvalidURN, s, Scheme, Separator)
	}
	if err := ValidateBusinessNumber(n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURN, err)
	}
	return ID(s), nil
}

// BusinessNumber returns the business number part of the identifier
func (id ID) BusinessNumber() string {
	return strings.TrimPrefix(string(id), Scheme+Separator)
}

func (id ID) String() string {
	return string(id)
}

// ValidateBusinessNumber checks n is exactly 11 ASCII digits
func ValidateBusinessNumber(n string) error {
	if len(n) != abnLength {
		return fmt.Errorf("%w: %q must be %d digits", ErrInvalidBusinessNumber, n, abnLength)
	}
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return fmt.Errorf("%w: %q must contain digits only", ErrInvalidBusinessNumber, n)
		}
	}
	return nil
}

// PartyIdentifier is one scheme/value pair from the party identifier claim
// and the identity provider's participant_ids list.
type PartyIdentifier struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

func (p PartyIdentifier) Validate() error {
	if p.Scheme == "" {
		return errors.New("party identifier scheme is empty")
	}
	if p.Value == "" {
		return errors.New("party identifier value is empty")
	}
	return nil
}

// URN renders the identifier under the ebcore namespace, e.g. PartyIDClaim + ":0151::51824753556"
func (p PartyIdentifier) URN() string {
	return PartyIDClaim + ":" + p.Scheme + Separator + p.Value
}

// ParsePartyIdentifier parses the "scheme:value" form used on the command line
func ParsePartyIdentifier(s string) (PartyIdentifier, error) {
	scheme, value, ok := strings.Cut(s, ":")
	p := PartyIdentifier{Scheme: scheme, Value: value}
	if !ok {
		return p, fmt.Errorf("party identifier %q must be in the form scheme:value", s)
	}
	return p, p.Validate()
}
