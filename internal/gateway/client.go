// Package gateway is the client for the message transfer gateway.
//
// Endpoint registration is made with the user's token. Message submission goes to the
// endpoint URL advertised by the receiving participant and carries no credentials; the URL
// must be a message endpoint on the configured gateway. Status polling uses the operational credential.
package gateway

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

var (
	// ErrNoEndpointID is returned when the registration response has no data.id
	ErrNoEndpointID = fmt.Errorf("%w: gateway response has no endpoint id", apiclient.ErrNoResult)

	// ErrInvalidEndpoint is returned before any request is made when a message endpoint
	// is not a message URL on the configured gateway
	ErrInvalidEndpoint = errors.New("invalid message endpoint")
)

const acceptIndented = "application/json; indent=4"

type Client struct {
	baseURL string
	exec    apiclient.Doer

	// operationalToken is only used for status polling
	operationalToken apiclient.OperationalToken
}

func NewClient(baseURL string, exec apiclient.Doer, operationalToken apiclient.OperationalToken) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		exec:             exec,
		operationalToken: operationalToken,
	}
}

type registerEndpointRequest struct {
	ParticipantID string `json:"participant_id"`
}

type registerEndpointResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MessageStatus is the gateway's view of a submitted message.
// The set of states is owned by the gateway.
type MessageStatus struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`

	// Raw is the complete status document
	Raw *apiclient.Response `json:"-"`
}

// RegisterEndpoint creates a transfer endpoint owned by the participant and returns its id
func (c *Client) RegisterEndpoint(ctx context.Context, id participant.ID, token apiclient.UserToken) (string, error) {
	resp, err := c.exec.Do(ctx, http.MethodPost, c.baseURL+"/api/endpoints", apiclient.Options{
		Credential: token,
		Accept:     acceptIndented,
		JSON:       registerEndpointRequest{ParticipantID: id.String()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to register endpoint for %s: %w", id, err)
	}

	var created registerEndpointResponse
	if err := resp.Decode(&created); err != nil {
		// a body of another shape is treated like a body without an id
		return "", fmt.Errorf("%w: %v", ErrNoEndpointID, err)
	}
	if created.Data.ID == "" {
		return "", ErrNoEndpointID
	}
	return created.Data.ID, nil
}

// MessageEndpointURL is the URL messages for the endpoint are posted to
func (c *Client) MessageEndpointURL(endpointID string) string {
	return c.baseURL + "/api/endpoints/" + url.PathEscape(endpointID) + "/message/"
}

// SubmitMessage posts a signed message to endpointURL as a multipart form with
// a "signature" part (the detached signature) and a "message" part (the payload).
func (c *Client) SubmitMessage(ctx context.Context, endpointURL, signaturePath, messagePath string) (*apiclient.Response, error) {
	if err := c.CheckEndpointURL(endpointURL); err != nil {
		return nil, err
	}

	resp, err := c.exec.Do(ctx, http.MethodPost, endpointURL, apiclient.Options{
		Parts: []apiclient.Part{
			{Name: "signature", Path: signaturePath},
			{Name: "message", Path: messagePath},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit message: %w", err)
	}
	return resp, nil
}

// SubmitMessageParts is SubmitMessage for uploads that are already in memory
func (c *Client) SubmitMessageParts(ctx context.Context, endpointURL string, signature, message apiclient.Part) (*apiclient.Response, error) {
	if err := c.CheckEndpointURL(endpointURL); err != nil {
		return nil, err
	}

	signature.Name = "signature"
	message.Name = "message"

	resp, err := c.exec.Do(ctx, http.MethodPost, endpointURL, apiclient.Options{
		Parts: []apiclient.Part{signature, message},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit message: %w", err)
	}
	return resp, nil
}

// GetMessageStatus returns the delivery status of a submitted message
func (c *Client) GetMessageStatus(ctx context.Context, messageID string) (*MessageStatus, error) {
	if messageID == "" {
		return nil, errors.New("message id is required")
	}

	resp, err := c.exec.Do(ctx, http.MethodGet, c.baseURL+"/api/messages/"+url.PathEscape(messageID)+"/status/", apiclient.Options{
		Credential: c.operationalToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status for message %s: %w", messageID, err)
	}

	status := &MessageStatus{Raw: resp}
	if err := resp.Decode(status); err != nil {
		return nil, fmt.Errorf("unexpected status document for message %s: %w", messageID, err)
	}
	return status, nil
}

// CheckEndpointURL reports whether endpointURL is a message endpoint of the configured gateway,
// i.e. {base}/api/endpoints/{id}/message/ on the same scheme and host.
func (c *Client) CheckEndpointURL(endpointURL string) error {
	u, err := url.Parse(endpointURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("%w: gateway url: %v", ErrInvalidEndpoint, err)
	}

	if u.Scheme != base.Scheme || !strings.EqualFold(u.Host, base.Host) || u.User != nil {
		return fmt.Errorf("%w: %q is not on the gateway host %s", ErrInvalidEndpoint, endpointURL, base.Host)
	}

	id, ok := strings.CutPrefix(u.Path, base.Path+"/api/endpoints/")
	if ok {
		id, ok = strings.CutSuffix(id, "/message/")
	}
	if !ok || id == "" || strings.Contains(id, "/") || strings.Contains(id, "..") || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: %q is not a gateway message endpoint", ErrInvalidEndpoint, endpointURL)
	}
	return nil
}
