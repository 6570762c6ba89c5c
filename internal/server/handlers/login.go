package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/server/middleware"
	"github.com/information-sharing-networks/dbc-connect/internal/server/response"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
)

// Authenticator exchanges an identity token for session state (see auth.Provisioner)
type Authenticator interface {
	Login(ctx context.Context, raw string) (*session.State, error)
}

// LoginHandler handles the identity provider redirect and the session lifecycle
type LoginHandler struct {
	authenticator Authenticator
	sessions      session.Store

	cookieName      string
	defaultRedirect string

	// secureCookie is set outside dev so the cookie is only sent over https
	secureCookie bool
}

func NewLoginHandler(authenticator Authenticator, sessions session.Store, cookieName, defaultRedirect string, secureCookie bool) *LoginHandler {
	return &LoginHandler{
		authenticator:   authenticator,
		sessions:        sessions,
		cookieName:      cookieName,
		defaultRedirect: defaultRedirect,
		secureCookie:    secureCookie,
	}
}

// SessionResponse describes the signed-in participant
type SessionResponse struct {
	ABN           string          `json:"abn" example:"51824753556"`
	ParticipantID string          `json:"participant_id" example:"urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556"`
	UserURN       string          `json:"user_urn" example:"urn:oasis:names:tc:ebcore:partyid-type:iso6523:0151::51824753556"`
	CustomerID    string          `json:"customer_id" example:"9a1e0d3c-1111-4c3a-9f1e-3b6c1a2b3c4d"`
	ExpiresAt     time.Time       `json:"expires_at"`
	Claims        json.RawMessage `json:"claims" swaggertype:"object"`
}

// HandleLogin godoc
//
//	@Summary		Sign in with an identity token
//	@Description	Validates the identity token, provisions the customer and account on first login
//	@Description	and starts a session. On success the session cookie is set and the browser is
//	@Description	redirected to `redirect` (a local path) or the default landing page.
//	@Description
//	@Description	No session is created and no redirect happens when the token is rejected.
//	@Tags			Auth
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			token		formData	string	true	"identity token (JWT)"
//	@Param			redirect	formData	string	false	"local path to return to"
//	@Success		302
//	@Failure		400	{object}	response.ErrorResponse	"token is missing"
//	@Failure		401	{object}	response.ErrorResponse	"token rejected"
//	@Failure		502	{object}	response.ErrorResponse	"provisioning failed"
//	@Router			/login [post]
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	raw := r.FormValue("token")
	if raw == "" {
		response.RespondWithErrorResponse(w, r, response.NewMalformedRequestError("token is required"))
		return
	}

	state, err := h.authenticator.Login(r.Context(), raw)
	if err != nil {
		response.RespondWithErrorResponse(w, r, err)
		return
	}

	st, err := h.sessions.Create(r.Context(), state)
	if err != nil {
		response.RespondWithErrorResponse(w, r, response.WrapInternalError(err, "failed to create session"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    st.ID.String(),
		Path:     "/",
		Expires:  st.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	dest := h.redirectTarget(r.FormValue("redirect"))

	reqLogger.Info("session started",
		slog.String("session_id", st.ID.String()),
		slog.String("redirect", dest))

	http.Redirect(w, r, dest, http.StatusFound)
}

// redirectTarget only allows local paths so the login endpoint cannot be used as an open redirect
func (h *LoginHandler) redirectTarget(requested string) string {
	if requested == "" || !strings.HasPrefix(requested, "/") || strings.HasPrefix(requested, "//") || strings.Contains(requested, `\`) {
		return h.defaultRedirect
	}
	u, err := url.Parse(requested)
	if err != nil || u.IsAbs() || u.Host != "" {
		return h.defaultRedirect
	}
	return requested
}

// HandleLogout godoc
//
//	@Summary	End the session
//	@Tags		Auth
//	@Success	204
//	@Router		/logout [post]
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	if cookie, err := r.Cookie(h.cookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			if err := h.sessions.Delete(r.Context(), id); err != nil {
				reqLogger.Warn("failed to delete session", slog.String("error", err.Error()))
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	response.RespondWithStatusCodeOnly(w, http.StatusNoContent)
}

// HandleSession godoc
//
//	@Summary	Current session
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	SessionResponse
//	@Failure	401	{object}	response.ErrorResponse	"no session"
//	@Router		/api/session [get]
func (h *LoginHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	st, ok := middleware.ContextSession(r.Context())
	if !ok {
		response.RespondWithErrorResponse(w, r, response.NewUnauthenticatedError("sign in to use this endpoint"))
		return
	}

	response.RespondWithJSONPayload(w, http.StatusOK, SessionResponse{
		ABN:           st.ABN,
		ParticipantID: st.ParticipantID().String(),
		UserURN:       st.UserURN,
		CustomerID:    st.CustomerID,
		ExpiresAt:     st.ExpiresAt,
		Claims:        st.Claims,
	})
}
