package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <endpoint-url> <signature-file> <message-file>",
	Short: "Send a signed message to an endpoint",
	Long: `Upload a message and its detached signature to an endpoint found with "lookup endpoints".

Example:
  dbc-cli send https://tap-gw.testpoint.io/api/endpoints/42/message/ invoice.sig invoice.xml`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		appLogger.Debug("sending message",
			slog.String("endpoint", args[0]),
			slog.String("signature_file", args[1]),
			slog.String("message_file", args[2]),
		)

		resp, err := app.gateway.SubmitMessage(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <message-id>",
	Short: "Check the delivery status of a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := app.gateway.GetMessageStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		appLogger.Debug("message status", slog.String("message_id", args[0]), slog.String("status", status.Status))
		return printJSON(cmd.OutOrStdout(), status.Raw)
	},
}
