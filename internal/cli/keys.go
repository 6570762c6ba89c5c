package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/dbc-connect/internal/participant"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Read and publish participant public keys",
}

// keyOutput adds the expiry check to the directory's key record
type keyOutput struct {
	PubKey      string `json:"pubKey"`
	Revocation  string `json:"revoked"`
	Fingerprint string `json:"fingerprint"`
	Expired     bool   `json:"expired"`
}

var keysGetCmd = &cobra.Command{
	Use:   "get <abn>",
	Short: "Get a participant's published public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := userToken()
		if err != nil {
			return err
		}

		id, err := participant.NewID(args[0])
		if err != nil {
			return err
		}

		key, err := app.directory.GetPublicKey(cmd.Context(), id, token)
		if err != nil {
			return err
		}

		expired := key.Revoked(time.Now())
		if expired {
			appLogger.Warn("published key has passed its revocation time", slog.String("revoked", key.Revocation))
		}

		return printJSON(cmd.OutOrStdout(), keyOutput{
			PubKey:      key.PubKey,
			Revocation:  key.Revocation,
			Fingerprint: key.Fingerprint,
			Expired:     expired,
		})
	},
}

var publishFingerprint string

var keysPublishCmd = &cobra.Command{
	Use:   "publish <abn>",
	Short: "Publish a participant's public key",
	Long: `Publish public_{abn}.key from KEYS_DIR to the directory. The key is revoked one week after publication.

The fingerprint defaults to the SHA-256 fingerprint of the key file.`,
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

		resp, err := app.directory.PublishPublicKey(cmd.Context(), id, publishFingerprint, token)
		if err != nil {
			return err
		}

		appLogger.Info("public key published", slog.String("participant_id", id.String()))
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	keysPublishCmd.Flags().StringVar(&publishFingerprint, "fingerprint", "", "fingerprint to publish with the key")

	keysCmd.AddCommand(keysGetCmd)
	keysCmd.AddCommand(keysPublishCmd)
}
