package directory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// KeyMaterial is one entry of a participant's key collection
type KeyMaterial struct {
	PubKey      string `json:"pubKey"`
	Revocation  string `json:"revoked"`
	Fingerprint string `json:"fingerprint"`
}

// RevocationTime parses the revocation timestamp. The directory echoes the "2006-01-02 15:04:05"
// form it was published with; RFC 3339 is accepted as well.
func (k KeyMaterial) RevocationTime() (time.Time, error) {
	if t, err := time.Parse(RevocationTimeFormat, k.Revocation); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, k.Revocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognised revocation time %q", k.Revocation)
	}
	return t, nil
}

// Revoked reports whether the key must no longer be trusted at now.
// A key with an unreadable revocation time is treated as revoked.
func (k KeyMaterial) Revoked(now time.Time) bool {
	t, err := k.RevocationTime()
	if err != nil {
		return true
	}
	return !now.Before(t)
}

// KeyPublication is the body of POST /{urn}/keys/
type KeyPublication struct {
	PubKey      string `json:"pubKey"`
	Revoked     string `json:"revoked"`
	Fingerprint string `json:"fingerprint"`
}

// ServiceMetadataReference is one entry of a participant's document type collection.
// The directory returns either an href string or an object; the original JSON is kept
// so it can be relayed unchanged.
type ServiceMetadataReference struct {
	Href string
	raw  json.RawMessage
}

func (r *ServiceMetadataReference) UnmarshalJSON(data []byte) error {
	r.raw = append(json.RawMessage(nil), data...)

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.Href = s
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("service metadata reference must be a string or an object: %w", err)
	}
	// first of the keys holding a non-empty string
	for _, key := range []string{"href", "Href", "id"} {
		var href string
		if err := json.Unmarshal(obj[key], &href); err == nil && href != "" {
			r.Href = href
			return nil
		}
	}
	return nil
}

func (r ServiceMetadataReference) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(r.Href)
}

// serviceGroup is the participant root document (GET /{urn}?format=json)
type serviceGroup struct {
	ServiceMetadataReferenceCollection []ServiceMetadataReference `json:"ServiceMetadataReferenceCollection"`
}

// ServiceMetadata is the service entry of a participant for one document type
type ServiceMetadata struct {
	ProcessList []Process `json:"ProcessList"`
}

type Process struct {
	ProcessIdentifier   OrderedValues `json:"ProcessIdentifier"`
	ServiceEndpointList []Endpoint    `json:"ServiceEndpointList"`
}

type Endpoint struct {
	EndpointURI           string `json:"EndpointURI"`
	TransportProfile      string `json:"transportProfile,omitempty"`
	ServiceActivationDate string `json:"ServiceActivationDate,omitempty"`
	ServiceExpirationDate string `json:"ServiceExpirationDate,omitempty"`
}

// OrderedValues holds the values of a JSON object in document order, or the elements of a JSON array.
// Process identifiers are rendered by joining these values with ":" so {"scheme":"dbc","value":"invoice"}
// becomes "dbc:invoice".
type OrderedValues []string

func (v *OrderedValues) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// a bare scalar identifier
		*v = OrderedValues{scalarString(tok)}
		return nil
	}

	var values []string
	switch delim {
	case '{':
		for dec.More() {
			if _, err := dec.Token(); err != nil { // key
				return err
			}
			val, err := dec.Token()
			if err != nil {
				return err
			}
			if _, nested := val.(json.Delim); nested {
				return fmt.Errorf("process identifier values must be scalars")
			}
			values = append(values, scalarString(val))
		}
	case '[':
		for dec.More() {
			val, err := dec.Token()
			if err != nil {
				return err
			}
			if _, nested := val.(json.Delim); nested {
				return fmt.Errorf("process identifier values must be scalars")
			}
			values = append(values, scalarString(val))
		}
	default:
		return fmt.Errorf("unexpected process identifier %s", delim)
	}

	*v = values
	return nil
}

func (v OrderedValues) String() string {
	return strings.Join(v, ":")
}

func scalarString(tok json.Token) string {
	switch t := tok.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "1"
		}
		return ""
	default:
		return ""
	}
}

// Identifier is a scheme/value pair in a capability advertisement
type Identifier struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

type DocumentIdentifier struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
	ID     string `json:"id"`
}

// Advertisement is the body of PUT /{urn}/service/dbc::core-invoice.
// It replaces the participant's previous advertisement for the document type.
type Advertisement struct {
	ProcessList           []AdvertisedProcess `json:"ProcessList"`
	DocumentIdentifier    DocumentIdentifier  `json:"DocumentIdentifier"`
	ParticipantIdentifier Identifier          `json:"ParticipantIdentifier"`
}

type AdvertisedProcess struct {
	ProcessIdentifier   Identifier           `json:"ProcessIdentifier"`
	ServiceEndpointList []AdvertisedEndpoint `json:"ServiceEndpointList"`
}

// AdvertisedEndpoint uses the field names and string encodings the directory expects
type AdvertisedEndpoint struct {
	ServiceActivationDate         string `json:"ServiceActivationDate"`
	Certificate                   string `json:"Certificate"`
	EndpointURI                   string `json:"EndpointURI"`
	TransportProfile              string `json:"transportProfile"`
	ServiceExpirationDate         string `json:"ServiceExpirationDate"`
	RequireBusinessLevelSignature string `json:"RequireBusinessLevelSignature"`
	TechnicalInformationURL       string `json:"TechnicalInformationUrl"`
	MinimumAuthenticationLevel    string `json:"MinimumAuthenticationLevel"`
	ServiceDescription            string `json:"ServiceDescription"`
}
