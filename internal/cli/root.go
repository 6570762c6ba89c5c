package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/config"
	"github.com/information-sharing-networks/dbc-connect/internal/directory"
	"github.com/information-sharing-networks/dbc-connect/internal/gateway"
	"github.com/information-sharing-networks/dbc-connect/internal/identity"
	"github.com/information-sharing-networks/dbc-connect/internal/keystore"
	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/version"
)

// tokenEnv names the environment variable read when --token is not given
const tokenEnv = "DBC_TOKEN"

var errNoUserToken = errors.New("a user token is required: pass --token or set " + tokenEnv)

// clients are the network clients used by the commands
type clients struct {
	directory *directory.Client
	gateway   *gateway.Client
	identity  *identity.Client
}

var (
	cfg       *config.ServerEnvironment
	appLogger *slog.Logger
	app       *clients

	tokenFlag string
)

var rootCmd = &cobra.Command{
	Use:               "dbc-cli",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Digital business capability network CLI",
	Long: `Look up participants in the network directory, publish keys and capabilities,
register gateway endpoints, send signed messages and manage identity provider customers.

Commands that act on behalf of a participant need the user's identity token (--token or DBC_TOKEN).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.NewClientConfig()
		if err != nil {
			log.Printf("failed to load configuration: %v", err.Error())
			return err
		}

		appLogger = logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)
		slog.SetDefault(appLogger)

		app = newClients(cfg, apiclient.NewExecutor(cfg.HTTPClientTimeout))
		return nil
	},
}

func newClients(cfg *config.ServerEnvironment, exec apiclient.Doer) *clients {
	opToken := apiclient.OperationalToken(cfg.OperationalToken)
	gw := gateway.NewClient(cfg.GatewayURL, exec, opToken)

	return &clients{
		directory: directory.NewClient(cfg.DirectoryURL, exec, keystore.NewFileStore(cfg.KeysDir), gw),
		gateway:   gw,
		identity:  identity.NewClient(cfg.IdentityURL, exec, opToken, cfg.IdentityClientID),
	}
}

func Execute() {
	v := version.Get()
	rootCmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "user identity token (defaults to $"+tokenEnv+")")

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(customerCmd)
}

// userToken returns the token from --token or DBC_TOKEN
func userToken() (apiclient.UserToken, error) {
	token := tokenFlag
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	if token == "" {
		return "", errNoUserToken
	}
	return apiclient.UserToken(token), nil
}

// printJSON writes v to w as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
