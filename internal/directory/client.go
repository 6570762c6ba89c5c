// Package directory is the client for the participant directory (capability lookup) service.
//
// The directory is addressed by participant identifier:
//
//	GET  /{urn}/keys/                    key collection
//	POST /{urn}/keys/                    publish a key
//	GET  /{urn}?format=json              document types the participant supports
//	GET  /{urn}/service/{doc}?format=json  processes and endpoints for a document type
//	PUT  /{urn}/service/dbc::core-invoice  replace the participant's capability advertisement
//
// Calls made on a user's behalf take the user's token explicitly. Lookups of public
// metadata are made without credentials.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/keystore"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

const (
	// KeyRevocationPeriod is added to the publish time to give the key's revocation time
	KeyRevocationPeriod = 7 * 24 * time.Hour

	// RevocationTimeFormat is the layout of the revoked field
	RevocationTimeFormat = "2006-01-02 15:04:05"

	// AdvertisementDateFormat is the layout of the service activation and expiration dates
	AdvertisementDateFormat = "2006-01-02"

	// CapabilityScheme is the scheme of the advertised document type and processes
	CapabilityScheme = "dbc"

	// CapabilityDocumentType is the document type every advertisement is published under
	CapabilityDocumentType = "core-invoice"

	// CapabilityDocumentTypeID is CapabilityScheme::CapabilityDocumentType
	CapabilityDocumentTypeID = CapabilityScheme + "::" + CapabilityDocumentType

	transportProfile = "TBD"

	// the directory requires these fields but does not use them yet
	placeholderCertificate = "123"
	placeholderTechInfoURL = "123"
	placeholderDescription = "123"

	acceptIndented = "application/json; indent=4"
)

// ProcessTypes are the processes advertised for every participant, in publication order
var ProcessTypes = []string{
	"invoice",
	"adjustment",
	"rcti",
	"taxreceipt",
	"creditnote",
	"debitnote",
}

var (
	// ErrNoKeys is returned when the participant's key collection is empty
	ErrNoKeys = fmt.Errorf("%w: participant has no published keys", apiclient.ErrNoResult)
)

// EndpointLocator turns a gateway endpoint id into the URL advertised in the directory
type EndpointLocator interface {
	MessageEndpointURL(endpointID string) string
}

// Client is safe for concurrent use
type Client struct {
	baseURL   string
	exec      apiclient.Doer
	keys      keystore.PublicKeyReader
	endpoints EndpointLocator

	// now is replaced in tests
	now func() time.Time
}

func NewClient(baseURL string, exec apiclient.Doer, keys keystore.PublicKeyReader, endpoints EndpointLocator) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		exec:      exec,
		keys:      keys,
		endpoints: endpoints,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of the client using now for timestamps
func (c *Client) WithClock(now func() time.Time) *Client {
	cc := *c
	cc.now = now
	return &cc
}

func (c *Client) participantURL(id participant.ID) string {
	return c.baseURL + "/" + url.PathEscape(id.String())
}

func (c *Client) keysURL(id participant.ID) string {
	return c.participantURL(id) + "/keys/"
}

// serviceURL is used for lookups. PHP-style urlencode of the document type id.
func (c *Client) serviceURL(id participant.ID, documentTypeID string) string {
	return c.participantURL(id) + "/service/" + url.QueryEscape(documentTypeID)
}

// ListPublicKeys returns the participant's key collection in the order the directory returns it
func (c *Client) ListPublicKeys(ctx context.Context, id participant.ID, token apiclient.UserToken) ([]KeyMaterial, error) {
	resp, err := c.exec.Do(ctx, http.MethodGet, c.keysURL(id), apiclient.Options{
		Credential: token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch keys for %s: %w", id, err)
	}

	var keys []KeyMaterial
	if err := resp.Decode(&keys); err != nil {
		return nil, fmt.Errorf("unexpected key collection for %s: %w", id, err)
	}
	return keys, nil
}

// GetPublicKey returns the first entry of the participant's key collection.
// Callers must check KeyMaterial.Revoked before trusting the key.
func (c *Client) GetPublicKey(ctx context.Context, id participant.ID, token apiclient.UserToken) (*KeyMaterial, error) {
	keys, err := c.ListPublicKeys(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNoKeys)
	}
	return &keys[0], nil
}

// BuildKeyPublication returns the key record published at now
func BuildKeyPublication(key []byte, fingerprint string, now time.Time) KeyPublication {
	return KeyPublication{
		PubKey:      string(key),
		Revoked:     now.Add(KeyRevocationPeriod).Format(RevocationTimeFormat),
		Fingerprint: fingerprint,
	}
}

// PublishPublicKey publishes the participant's local public key with a revocation time one week from now.
// When fingerprint is empty the SHA-256 fingerprint of the key is sent.
func (c *Client) PublishPublicKey(ctx context.Context, id participant.ID, fingerprint string, token apiclient.UserToken) (*apiclient.Response, error) {
	key, err := c.keys.PublicKey(id.BusinessNumber())
	if err != nil {
		return nil, fmt.Errorf("failed to read public key for %s: %w", id, err)
	}

	if fingerprint == "" {
		fingerprint = keystore.Fingerprint(key)
	}

	resp, err := c.exec.Do(ctx, http.MethodPost, c.keysURL(id), apiclient.Options{
		Credential: token,
		JSON:       BuildKeyPublication(key, fingerprint, c.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish key for %s: %w", id, err)
	}
	return resp, nil
}

// ListDocumentTypes returns the participant's service metadata reference collection
func (c *Client) ListDocumentTypes(ctx context.Context, id participant.ID) ([]ServiceMetadataReference, error) {
	resp, err := c.exec.Do(ctx, http.MethodGet, c.participantURL(id)+"?format=json", apiclient.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document types for %s: %w", id, err)
	}

	var group serviceGroup
	if err := resp.Decode(&group); err != nil {
		return nil, fmt.Errorf("unexpected service group for %s: %w", id, err)
	}
	if group.ServiceMetadataReferenceCollection == nil {
		return []ServiceMetadataReference{}, nil
	}
	return group.ServiceMetadataReferenceCollection, nil
}

// GetServiceMetadata returns the processes and endpoints the participant advertises for a document type
func (c *Client) GetServiceMetadata(ctx context.Context, id participant.ID, documentTypeID string) (*ServiceMetadata, error) {
	resp, err := c.exec.Do(ctx, http.MethodGet, c.serviceURL(id, documentTypeID)+"?format=json", apiclient.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch service metadata for %s: %w", id, err)
	}

	var md ServiceMetadata
	if err := resp.Decode(&md); err != nil {
		return nil, fmt.Errorf("unexpected service metadata for %s: %w", id, err)
	}
	return &md, nil
}

// ListEndpoints flattens the participant's service metadata into "process - endpoint URI" entries,
// one per endpoint in directory order, e.g. "dbc:invoice - http://x/msg".
//
// An error means the directory could not be queried. A participant that advertises no
// processes gives an empty, non-nil slice.
func (c *Client) ListEndpoints(ctx context.Context, id participant.ID, documentTypeID string) ([]string, error) {
	md, err := c.GetServiceMetadata(ctx, id, documentTypeID)
	if err != nil {
		return nil, err
	}
	return md.EndpointSummaries(), nil
}

// EndpointSummaries renders the "process - endpoint URI" entries
func (md *ServiceMetadata) EndpointSummaries() []string {
	result := []string{}
	for _, p := range md.ProcessList {
		processID := p.ProcessIdentifier.String()
		for _, ep := range p.ServiceEndpointList {
			result = append(result, processID+" - "+ep.EndpointURI)
		}
	}
	return result
}

// BuildAdvertisement returns the capability advertisement for a participant whose
// gateway endpoint is endpointURL. Every process in ProcessTypes points at the same
// endpoint and is valid from now for one year.
func BuildAdvertisement(endpointURL string, id participant.ID, now time.Time) Advertisement {
	activation := now.Format(AdvertisementDateFormat)
	expiration := now.AddDate(1, 0, 0).Format(AdvertisementDateFormat)

	processes := make([]AdvertisedProcess, 0, len(ProcessTypes))
	for _, process := range ProcessTypes {
		processes = append(processes, AdvertisedProcess{
			ProcessIdentifier: Identifier{Scheme: CapabilityScheme, Value: process},
			ServiceEndpointList: []AdvertisedEndpoint{
				{
					ServiceActivationDate:         activation,
					Certificate:                   placeholderCertificate,
					EndpointURI:                   endpointURL,
					TransportProfile:              transportProfile,
					ServiceExpirationDate:         expiration,
					RequireBusinessLevelSignature: "false",
					TechnicalInformationURL:       placeholderTechInfoURL,
					MinimumAuthenticationLevel:    "0",
					ServiceDescription:            placeholderDescription,
				},
			},
		})
	}

	return Advertisement{
		ProcessList: processes,
		DocumentIdentifier: DocumentIdentifier{
			Scheme: CapabilityScheme,
			Value:  CapabilityDocumentType,
			ID:     CapabilityDocumentTypeID,
		},
		ParticipantIdentifier: Identifier{
			Scheme: participant.Scheme,
			Value:  id.BusinessNumber(),
		},
	}
}

// PublishCapabilities replaces the participant's advertisement for dbc::core-invoice so that
// every supported process is delivered to the gateway endpoint endpointID.
func (c *Client) PublishCapabilities(ctx context.Context, endpointID string, token apiclient.UserToken, id participant.ID) (*apiclient.Response, error) {
	if endpointID == "" {
		return nil, errors.New("endpoint id is required")
	}

	ad := BuildAdvertisement(c.endpoints.MessageEndpointURL(endpointID), id, c.now())

	resp, err := c.exec.Do(ctx, http.MethodPut, c.participantURL(id)+"/service/"+CapabilityDocumentTypeID, apiclient.Options{
		Credential: token,
		Accept:     acceptIndented,
		JSON:       ad,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish capabilities for %s: %w", id, err)
	}
	return resp, nil
}
