// Package identity is the client for the identity provider's customer API.
// Every call is made with the operational credential.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

// ErrNoCustomerID is returned when the identity provider's response has no uuid
var ErrNoCustomerID = fmt.Errorf("%w: identity provider response has no customer uuid", apiclient.ErrNoResult)

const acceptIndented = "application/json; indent=4"

// Customer is the identity provider's customer record
type Customer struct {
	UUID           string                        `json:"uuid"`
	ParticipantIDs []participant.PartyIdentifier `json:"participant_ids,omitempty"`
}

type createCustomerRequest struct {
	ParticipantIDs []participant.PartyIdentifier `json:"participant_ids"`
}

// CustomerProvisioner is used by the login flow
type CustomerProvisioner interface {
	CreateCustomer(ctx context.Context, participantIDs []participant.PartyIdentifier) (*Customer, error)
}

type Client struct {
	baseURL          string
	exec             apiclient.Doer
	operationalToken apiclient.OperationalToken
	defaultClientID  string
}

func NewClient(baseURL string, exec apiclient.Doer, operationalToken apiclient.OperationalToken, defaultClientID string) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		exec:             exec,
		operationalToken: operationalToken,
		defaultClientID:  defaultClientID,
	}
}

// CreateCustomer creates the remote customer record for a participant's party identifiers
func (c *Client) CreateCustomer(ctx context.Context, participantIDs []participant.PartyIdentifier) (*Customer, error) {
	if len(participantIDs) == 0 {
		return nil, errors.New("at least one participant id is required")
	}
	for _, p := range participantIDs {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	resp, err := c.exec.Do(ctx, http.MethodPost, c.baseURL+"/api/customers/v0/", apiclient.Options{
		Credential: c.operationalToken,
		JSON:       createCustomerRequest{ParticipantIDs: participantIDs},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	var customer Customer
	if err := resp.Decode(&customer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCustomerID, err)
	}
	if customer.UUID == "" {
		return nil, ErrNoCustomerID
	}
	return &customer, nil
}

// MintCustomerToken asks the identity provider for a token scoped to the customer and client.
// An empty clientID uses the configured default client.
func (c *Client) MintCustomerToken(ctx context.Context, customerID, clientID string) (*apiclient.Response, error) {
	if customerID == "" {
		return nil, errors.New("customer id is required")
	}
	if clientID == "" {
		clientID = c.defaultClientID
	}

	tokenURL := fmt.Sprintf("%s/api/customers/v0/%s/tokens/%s/", c.baseURL, url.PathEscape(customerID), url.PathEscape(clientID))

	resp, err := c.exec.Do(ctx, http.MethodPost, tokenURL, apiclient.Options{
		Credential: c.operationalToken,
		Accept:     acceptIndented,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mint token for customer %s: %w", customerID, err)
	}
	return resp, nil
}
