package cli

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

type registration struct {
	EndpointID  string          `json:"endpoint_id"`
	EndpointURL string          `json:"endpoint_url"`
	Directory   json.RawMessage `json:"directory"`
}

var registerCmd = &cobra.Command{
	Use:   "register <abn>",
	Short: "Register a gateway endpoint and advertise it in the directory",
	Long: `Register a message endpoint for the participant with the gateway, then publish the
participant's dbc::core-invoice capabilities so every supported process is delivered to it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := userToken()
		if err != nil {
			return err
		}

		id, err := participant.NewID(args[0])
		if err != nil {
			return err
		}

		endpointID, err := app.gateway.RegisterEndpoint(cmd.Context(), id, token)
		if err != nil {
			return err
		}

		appLogger.Info("gateway endpoint registered", slog.String("endpoint_id", endpointID))

		resp, err := app.directory.PublishCapabilities(cmd.Context(), endpointID, token, id)
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), registration{
			EndpointID:  endpointID,
			EndpointURL: app.gateway.MessageEndpointURL(endpointID),
			Directory:   resp.Body,
		})
	},
}
