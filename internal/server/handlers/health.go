package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/information-sharing-networks/dbc-connect/internal/database"
	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/server/response"
)

// ReadinessCheck is one dependency reported by /health/ready. A nil Check is reported as
// "disabled" and does not affect readiness.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// DatabaseCheck pings the database. queries may be nil when the server runs without a pool.
func DatabaseCheck(queries *database.Queries) ReadinessCheck {
	return ReadinessCheck{
		Name: "database",
		Check: func(ctx context.Context) error {
			if queries == nil {
				return errors.New("no database pool")
			}
			_, err := queries.IsDatabaseRunning(ctx)
			return err
		},
	}
}

// ReadinessResponse lists the state of each dependency: ok, unavailable or disabled
type ReadinessResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// HandleHealth godoc
//
//	@Summary		Health (liveness) Check
//	@Description	Check if the HTTP service is alive and responding.
//	@Tags			Common
//	@Produce		plain
//
//	@Success		200	{string}	string	"OK"
//
//	@Router			/health/live [get]
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// HandleReadiness godoc
//
//	@Summary		Readiness Check
//	@Description	Checks the database and, when token signatures are verified, that the identity provider's JWK set is loaded.
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	ReadinessResponse	"status ready"
//	@Failure		503	{object}	ReadinessResponse	"status not ready"
//	@Router			/health/ready [get]
func HandleReadiness(checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
		statusCode := http.StatusOK

		for _, c := range checks {
			if c.Check == nil {
				resp.Checks[c.Name] = "disabled"
				continue
			}
			if err := c.Check(r.Context()); err != nil {
				logger.ContextRequestLogger(r.Context()).Warn("readiness check failed",
					slog.String("check", c.Name),
					slog.String("error", err.Error()))

				resp.Checks[c.Name] = "unavailable"
				resp.Status = "not ready"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		response.RespondWithJSONPayload(w, statusCode, resp)
	}
}
