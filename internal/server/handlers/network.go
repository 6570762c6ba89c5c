package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/directory"
	"github.com/information-sharing-networks/dbc-connect/internal/gateway"
	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/participant"
	"github.com/information-sharing-networks/dbc-connect/internal/server/middleware"
	"github.com/information-sharing-networks/dbc-connect/internal/server/response"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

// DirectoryService is the part of directory.Client used by the API
type DirectoryService interface {
	ListDocumentTypes(ctx context.Context, id participant.ID) ([]directory.ServiceMetadataReference, error)
	ListEndpoints(ctx context.Context, id participant.ID, documentTypeID string) ([]string, error)
	GetPublicKey(ctx context.Context, id participant.ID, token apiclient.UserToken) (*directory.KeyMaterial, error)
	PublishPublicKey(ctx context.Context, id participant.ID, fingerprint string, token apiclient.UserToken) (*apiclient.Response, error)
	PublishCapabilities(ctx context.Context, endpointID string, token apiclient.UserToken, id participant.ID) (*apiclient.Response, error)
}

// GatewayService is the part of gateway.Client used by the API
type GatewayService interface {
	RegisterEndpoint(ctx context.Context, id participant.ID, token apiclient.UserToken) (string, error)
	MessageEndpointURL(endpointID string) string
	CheckEndpointURL(endpointURL string) error
	SubmitMessageParts(ctx context.Context, endpointURL string, signature, message apiclient.Part) (*apiclient.Response, error)
	GetMessageStatus(ctx context.Context, messageID string) (*gateway.MessageStatus, error)
}

// CustomerTokenMinter is the part of identity.Client used by the API
type CustomerTokenMinter interface {
	MintCustomerToken(ctx context.Context, customerID, clientID string) (*apiclient.Response, error)
}

// NetworkHandler exposes the network clients to signed-in users.
// The session supplies the user token and the participant identifier for every call.
type NetworkHandler struct {
	directory DirectoryService
	gateway   GatewayService
	identity  CustomerTokenMinter
	now       func() time.Time
}

func NewNetworkHandler(directory DirectoryService, gateway GatewayService, identity CustomerTokenMinter) *NetworkHandler {
	return &NetworkHandler{
		directory: directory,
		gateway:   gateway,
		identity:  identity,
		now:       time.Now,
	}
}

// requests and responses

type DocumentTypesResponse struct {
	ParticipantID string                               `json:"participant_id"`
	DocumentTypes []directory.ServiceMetadataReference `json:"document_types" swaggertype:"array,object"`
}

type EndpointsResponse struct {
	ParticipantID string   `json:"participant_id"`
	DocumentType  string   `json:"document_type"`
	Endpoints     []string `json:"endpoints" example:"dbc:invoice - http://x/msg"`
}

type PublicKeyResponse struct {
	ParticipantID string `json:"participant_id"`
	PubKey        string `json:"pubKey"`
	Revocation    string `json:"revoked" example:"2027-01-04 23:30:15"`
	Fingerprint   string `json:"fingerprint"`

	// Expired is true once the revocation time has passed; the key must not be trusted
	Expired bool `json:"expired"`
}

type PublishKeyRequest struct {
	// Fingerprint defaults to the SHA-256 fingerprint of the key file
	Fingerprint string `json:"fingerprint,omitempty"`
}

type RegistrationResponse struct {
	EndpointID  string          `json:"endpoint_id"`
	EndpointURL string          `json:"endpoint_url"`
	Directory   json.RawMessage `json:"directory" swaggertype:"object"`
}

type MessageStatusResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Raw    json.RawMessage `json:"raw" swaggertype:"object"`
}

type CustomerTokenRequest struct {
	// ClientID defaults to the configured identity provider client
	ClientID string `json:"client_id,omitempty"`
}

// HandleListDocumentTypes godoc
//
//	@Summary	List a participant's document types
//	@Tags		Directory
//	@Produce	json
//	@Param		abn	path		string	true	"business number"	example(51824753556)
//	@Success	200	{object}	DocumentTypesResponse
//	@Failure	400	{object}	response.ErrorResponse	"invalid business number"
//	@Failure	502	{object}	response.ErrorResponse	"directory error"
//	@Router		/api/participants/{abn}/document-types [get]
func (h *NetworkHandler) HandleListDocumentTypes(w http.ResponseWriter, r *http.Request) {
	id, err := participant.NewID(chi.URLParam(r, "abn"))
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	refs, err := h.directory.ListDocumentTypes(r.Context(), id)
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}
	if refs == nil {
		refs = []directory.ServiceMetadataReference{}
	}

	response.RespondWithJSONPayload(w, http.StatusOK, DocumentTypesResponse{
		ParticipantID: id.String(),
		DocumentTypes: refs,
	})
}

// HandleListEndpoints godoc
//
//	@Summary		List a participant's endpoints for a document type
//	@Description	Each entry is "process - endpoint url", e.g. "dbc:invoice - http://x/msg"
//	@Tags			Directory
//	@Produce		json
//	@Param			abn				path		string	true	"business number"
//	@Param			documentType	query		string	true	"document type identifier"	example(dbc::core-invoice)
//	@Success		200				{object}	EndpointsResponse
//	@Failure		400				{object}	response.ErrorResponse	"invalid request"
//	@Failure		502				{object}	response.ErrorResponse	"directory error"
//	@Router			/api/participants/{abn}/endpoints [get]
func (h *NetworkHandler) HandleListEndpoints(w http.ResponseWriter, r *http.Request) {
	id, err := participant.NewID(chi.URLParam(r, "abn"))
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	documentType := r.URL.Query().Get("documentType")
	if documentType == "" {
		response.RespondWithErrorResponse(w, r, response.NewMalformedRequestError("documentType is required"))
		return
	}

	endpoints, err := h.directory.ListEndpoints(r.Context(), id, documentType)
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	response.RespondWithJSONPayload(w, http.StatusOK, EndpointsResponse{
		ParticipantID: id.String(),
		DocumentType:  documentType,
		Endpoints:     endpoints,
	})
}

// HandleGetPublicKey godoc
//
//	@Summary	Get a participant's published public key
//	@Tags		Directory
//	@Produce	json
//	@Param		abn	path		string	true	"business number"
//	@Success	200	{object}	PublicKeyResponse
//	@Failure	404	{object}	response.ErrorResponse	"no published key"
//	@Router		/api/participants/{abn}/keys [get]
func (h *NetworkHandler) HandleGetPublicKey(w http.ResponseWriter, r *http.Request) {
	st := mustSession(r)

	id, err := participant.NewID(chi.URLParam(r, "abn"))
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	key, err := h.directory.GetPublicKey(r.Context(), id, st.UserToken())
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	response.RespondWithJSONPayload(w, http.StatusOK, PublicKeyResponse{
		ParticipantID: id.String(),
		PubKey:        key.PubKey,
		Revocation:    key.Revocation,
		Fingerprint:   key.Fingerprint,
		Expired:       key.Revoked(h.now()),
	})
}

// HandlePublishPublicKey godoc
//
//	@Summary		Publish the signed-in participant's public key
//	@Description	Reads public_{abn}.key from the key directory and publishes it with a revocation time one week ahead.
//	@Description	The directory's response is relayed unchanged.
//	@Tags			Directory
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PublishKeyRequest	false	"optional fingerprint"
//	@Success		200		{object}	object
//	@Failure		404		{object}	response.ErrorResponse	"key file not found"
//	@Router			/api/keys [post]
func (h *NetworkHandler) HandlePublishPublicKey(w http.ResponseWriter, r *http.Request) {
	st := mustSession(r)

	var req PublishKeyRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	resp, err := h.directory.PublishPublicKey(r.Context(), st.ParticipantID(), req.Fingerprint, st.UserToken())
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	response.RespondWithJSONPayload(w, http.StatusOK, resp)
}

// HandleRegister godoc
//
//	@Summary		Register a gateway endpoint and advertise it
//	@Description	Registers a message endpoint for the signed-in participant with the gateway, then
//	@Description	publishes the participant's dbc::core-invoice capabilities pointing at that endpoint.
//	@Tags			Gateway
//	@Produce		json
//	@Success		200	{object}	RegistrationResponse
//	@Failure		502	{object}	response.ErrorResponse	"gateway or directory error"
//	@Router			/api/registration [post]
func (h *NetworkHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())
	st := mustSession(r)
	id := st.ParticipantID()

	endpointID, err := h.gateway.RegisterEndpoint(r.Context(), id, st.UserToken())
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	reqLogger.Info("gateway endpoint registered", slog.String("endpoint_id", endpointID))

	resp, err := h.directory.PublishCapabilities(r.Context(), endpointID, st.UserToken(), id)
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	response.RespondWithJSONPayload(w, http.StatusOK, RegistrationResponse{
		EndpointID:  endpointID,
		EndpointURL: h.gateway.MessageEndpointURL(endpointID),
		Directory:   resp.Body,
	})
}

// HandleSubmitMessage godoc
//
//	@Summary		Submit a signed message
//	@Description	Forwards the signature and message files to the endpoint as a multipart upload.
//	@Description	The gateway's response is relayed unchanged.
//	@Tags			Gateway
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			endpoint	formData	string	true	"gateway message endpoint url from the directory"
//	@Param			signature	formData	file	true	"detached signature"
//	@Param			message		formData	file	true	"message payload"
//	@Success		200			{object}	object
//	@Failure		400			{object}	response.ErrorResponse	"invalid upload or endpoint not on the gateway"
//	@Router			/api/messages [post]
func (h *NetworkHandler) HandleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	endpoint := r.FormValue("endpoint")
	if endpoint == "" {
		response.RespondWithErrorResponse(w, r, response.NewMalformedRequestError("endpoint is required"))
		return
	}
	if err := h.gateway.CheckEndpointURL(endpoint); err != nil {
		response.RespondWithErrorResponse(w, r, response.WrapMalformedRequestError(err, "endpoint must be a message endpoint on the gateway"))
		return
	}

	signature, err := formPart(r, "signature")
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}
	defer signature.close()

	message, err := formPart(r, "message")
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}
	defer message.close()

	resp, err := h.gateway.SubmitMessageParts(r.Context(), endpoint, signature.part, message.part)
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	response.RespondWithJSONPayload(w, http.StatusOK, resp)
}

// HandleMessageStatus godoc
//
//	@Summary	Get the delivery status of a message
//	@Tags		Gateway
//	@Produce	json
//	@Param		id	path		string	true	"message id"
//	@Success	200	{object}	MessageStatusResponse
//	@Failure	404	{object}	response.ErrorResponse	"unknown message"
//	@Router		/api/messages/{id}/status [get]
func (h *NetworkHandler) HandleMessageStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.gateway.GetMessageStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	res := MessageStatusResponse{ID: status.ID, Status: status.Status}
	if status.Raw != nil {
		res.Raw = status.Raw.Body
	}
	response.RespondWithJSONPayload(w, http.StatusOK, res)
}

// HandleMintCustomerToken godoc
//
//	@Summary		Mint a token for the signed-in customer
//	@Description	The identity provider's response is relayed unchanged.
//	@Tags			Identity
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CustomerTokenRequest	false	"optional client id"
//	@Success		200		{object}	object
//	@Router			/api/customer/tokens [post]
func (h *NetworkHandler) HandleMintCustomerToken(w http.ResponseWriter, r *http.Request) {
	st := mustSession(r)

	var req CustomerTokenRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	resp, err := h.identity.MintCustomerToken(r.Context(), st.CustomerID, req.ClientID)
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	response.RespondWithJSONPayload(w, http.StatusOK, resp)
}

// mustSession returns the session loaded by middleware.RequireSession. The /api routes are
// only mounted behind that middleware.
func mustSession(r *http.Request) *session.State {
	st, ok := middleware.ContextSession(r.Context())
	if !ok {
		panic("handlers: session route mounted without RequireSession")
	}
	return st
}

// decodeOptionalJSON decodes the body into v. An empty body leaves v unchanged.
func decodeOptionalJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return response.WrapMalformedRequestError(err, "invalid JSON body")
	}
	return nil
}

type uploadedPart struct {
	part  apiclient.Part
	close func()
}

// formPart opens the named multipart file
func formPart(r *http.Request, name string) (*uploadedPart, error) {
	file, header, err := r.FormFile(name)
	if err != nil {
		return nil, response.WrapMalformedRequestError(err, name+" file is required")
	}
	return &uploadedPart{
		part:  apiclient.Part{Name: name, FileName: header.Filename, Reader: file},
		close: func() { _ = file.Close() },
	}, nil
}
