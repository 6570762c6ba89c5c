package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Look up a participant in the network directory",
}

var lookupDocumentTypesCmd = &cobra.Command{
	Use:   "document-types <abn>",
	Short: "List the document types a participant supports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := participant.NewID(args[0])
		if err != nil {
			return err
		}

		refs, err := app.directory.ListDocumentTypes(cmd.Context(), id)
		if err != nil {
			return err
		}

		appLogger.Debug("document types found", slog.String("participant_id", id.String()), slog.Int("count", len(refs)))
		return printJSON(cmd.OutOrStdout(), refs)
	},
}

var lookupMetadata bool

var lookupEndpointsCmd = &cobra.Command{
	Use:   "endpoints <abn> <document-type>",
	Short: "List a participant's endpoints for a document type",
	Long: `List a participant's endpoints for a document type, one "process - endpoint url" line each.

Example:
  dbc-cli lookup endpoints 51824753556 dbc::core-invoice

Use --metadata to print the directory's service metadata instead.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := participant.NewID(args[0])
		if err != nil {
			return err
		}

		md, err := app.directory.GetServiceMetadata(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}

		if lookupMetadata {
			return printJSON(cmd.OutOrStdout(), md)
		}

		for _, line := range md.EndpointSummaries() {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	lookupEndpointsCmd.Flags().BoolVar(&lookupMetadata, "metadata", false, "print the service metadata as JSON")

	lookupCmd.AddCommand(lookupDocumentTypesCmd)
	lookupCmd.AddCommand(lookupEndpointsCmd)
}
