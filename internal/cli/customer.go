package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

var customerCmd = &cobra.Command{
	Use:   "customer",
	Short: "Manage identity provider customers",
}

var customerCreateCmd = &cobra.Command{
	Use:   "create <scheme:value>...",
	Short: "Create a customer for one or more party identifiers",
	Long: `Create an identity provider customer.

Example:
  dbc-cli customer create 0151:51824753556`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parsePartyIdentifiers(args)
		if err != nil {
			return err
		}

		customer, err := app.identity.CreateCustomer(cmd.Context(), ids)
		if err != nil {
			return err
		}

		appLogger.Info("customer created", slog.String("customer_id", customer.UUID))
		return printJSON(cmd.OutOrStdout(), customer)
	},
}

var tokenClientID string

var customerTokenCmd = &cobra.Command{
	Use:   "token <customer-id>",
	Short: "Mint a token for a customer",
	Long:  `Mint a token for a customer. The client id defaults to IDENTITY_CLIENT_ID.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := app.identity.MintCustomerToken(cmd.Context(), args[0], tokenClientID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	customerTokenCmd.Flags().StringVar(&tokenClientID, "client-id", "", "identity provider client id")

	customerCmd.AddCommand(customerCreateCmd)
	customerCmd.AddCommand(customerTokenCmd)
}

// parsePartyIdentifiers parses "scheme:value" arguments
func parsePartyIdentifiers(args []string) ([]participant.PartyIdentifier, error) {
	ids := make([]participant.PartyIdentifier, 0, len(args))
	for _, arg := range args {
		id, err := participant.ParsePartyIdentifier(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
