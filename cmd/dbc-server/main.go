package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	_ "github.com/information-sharing-networks/dbc-connect/docs"
	"github.com/information-sharing-networks/dbc-connect/internal/config"
	"github.com/information-sharing-networks/dbc-connect/internal/database"
	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/server"
	"github.com/information-sharing-networks/dbc-connect/internal/version"
)

//	@title			dbc-server
//	@description	dbc-server connects businesses to the digital business capability network.
//	@description
//	@description	Users sign in with a token issued by the network's identity provider. On the first login a customer
//	@description	is created with the identity provider and a local account is provisioned; later logins reuse it.
//	@description	The signed-in session then supplies the user's token and participant identifier to the directory,
//	@description	gateway and identity provider calls made by the `/api` endpoints.
//	@description
//	@description	## Common Error Responses
//	@description	All endpoints may return:
//	@description	- `413` Request body exceeds size limit
//	@description	- `429` Rate limit exceeded
//	@description	- `500` Internal server error
//	@description	- `502` / `503` the network service failed or could not be reached
//	@description
//	@description	## Request Limits
//	@description	All endpoints are protected by:
//	@description	- **Rate limiting**: Configurable requests per second (see env vars) - default 100 rps (set to 0 to disable)
//	@description	- **Request size limits**: Configurable (see env vars) - default 10MB
//	@description
//	@description	## Authentication
//	@description	`/api` endpoints require the session cookie set by `/login`.
//	@license.name	MIT

//	@servers.url			http://localhost:8080
//	@servers.description	Development server

//	@accept		json
//	@produce	json

//	@tag.name			Auth
//	@tag.description	Sign in with an identity provider token and manage the session

//	@tag.name			Directory
//	@tag.description	Participant lookups and key publication against the network directory

//	@tag.name			Gateway
//	@tag.description	Endpoint registration, message submission and delivery status

//	@tag.name			Identity
//	@tag.description	Customer token minting

//	@tag.name			Common
//	@tag.description	Server API endpoints (health, readiness, version, etc.)

func main() {
	cmd := &cobra.Command{
		Use:   "dbc-server",
		Short: "Digital business capability network connector",
		Long:  `dbc-server signs users in with identity provider tokens and exposes the network directory, gateway and identity services to them`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate()
		},
	})

	v := version.Get()
	cmd.Version = fmt.Sprintf("%s (built %s, commit %s)", v.Version, v.BuildDate, v.GitCommit)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and connects to the database
func setup() (*config.ServerEnvironment, *slog.Logger, *pgxpool.Pool) {
	cfg, err := config.NewServerConfig()
	if err != nil {
		log.Printf("failed to load configuration: %v", err.Error())
		os.Exit(1)
	}

	appLogger := logger.InitLogger(logger.ParseLogLevel(cfg.LogLevel), cfg.Environment)

	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("DIRECTORY_URL", cfg.DirectoryURL),
		slog.String("GATEWAY_URL", cfg.GatewayURL),
		slog.String("IDENTITY_URL", cfg.IdentityURL),
		slog.String("EXPECTED_ISSUER", cfg.ExpectedIssuer),
		slog.String("KEYS_DIR", cfg.KeysDir),
		slog.Duration("SESSION_TTL", cfg.SessionTTL),
	)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), cfg.DatabasePingTimeout)
	defer dbCancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		appLogger.Error("Failed to parse database URL", slog.String("error", err.Error()))
		os.Exit(1)
	}

	poolConfig.MaxConns = cfg.DBMaxConnections
	poolConfig.MinConns = cfg.DBMinConnections
	poolConfig.MaxConnLifetime = cfg.DBMaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DBMaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.DBConnectTimeout

	pool, err := pgxpool.NewWithConfig(dbCtx, poolConfig)
	if err != nil {
		appLogger.Error("Unable to create connection pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err = pool.Ping(dbCtx); err != nil {
		appLogger.Error("Error pinging database via pool", slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("connected to PostgreSQL")
	return cfg, appLogger, pool
}

func migrate() error {
	_, appLogger, pool := setup()
	defer pool.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, pool, appLogger); err != nil {
		appLogger.Error("Migration failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func run() error {
	cfg, appLogger, pool := setup()

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := server.NewServer(ctx, pool, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		pool.Close()
		os.Exit(1)
	}

	defer server.DatabaseShutdown()

	if err := server.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return err
	}

	appLogger.Info("server shutdown complete")
	return nil
}
