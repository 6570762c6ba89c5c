package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/information-sharing-networks/dbc-connect/internal/apiclient"
	"github.com/information-sharing-networks/dbc-connect/internal/auth"
	"github.com/information-sharing-networks/dbc-connect/internal/config"
	"github.com/information-sharing-networks/dbc-connect/internal/database"
	"github.com/information-sharing-networks/dbc-connect/internal/directory"
	"github.com/information-sharing-networks/dbc-connect/internal/gateway"
	"github.com/information-sharing-networks/dbc-connect/internal/identity"
	"github.com/information-sharing-networks/dbc-connect/internal/keystore"
	"github.com/information-sharing-networks/dbc-connect/internal/logger"
	"github.com/information-sharing-networks/dbc-connect/internal/server/handlers"
	dbcmiddleware "github.com/information-sharing-networks/dbc-connect/internal/server/middleware"
	"github.com/information-sharing-networks/dbc-connect/internal/session"
	"github.com/information-sharing-networks/dbc-connect/internal/version"
)

const (
	// requestTimeout bounds every request, including the calls made to the network services
	requestTimeout = 60 * time.Second

	// sessionPurgeInterval is how often expired sessions are deleted
	sessionPurgeInterval = 15 * time.Minute
)

type Server struct {
	pool    *pgxpool.Pool
	queries *database.Queries
	config  *config.ServerEnvironment
	logger  *slog.Logger
	router  *chi.Mux

	sessions  session.Store
	readiness []handlers.ReadinessCheck

	loginHandler   *handlers.LoginHandler
	networkHandler *handlers.NetworkHandler
}

// Services are the collaborators built from the configuration. NewServer builds them when nil;
// tests pass fakes.
type Services struct {
	Sessions      session.Store
	Authenticator handlers.Authenticator
	Directory     handlers.DirectoryService
	Gateway       handlers.GatewayService
	Identity      handlers.CustomerTokenMinter

	// Readiness is reported by /health/ready alongside the database
	Readiness []handlers.ReadinessCheck
}

// NewServer wires the network clients, the login flow and the router.
// ctx controls the lifetime of background work (JWKS refresh).
func NewServer(
	ctx context.Context,
	pool *pgxpool.Pool,
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
) (*Server, error) {
	server := &Server{
		pool:    pool,
		queries: database.New(pool),
		config:  cfg,
		logger:  logger,
		router:  chi.NewRouter(),
	}

	services, err := server.initServices(ctx)
	if err != nil {
		return nil, err
	}
	server.useServices(services)

	server.setupMiddleware()
	server.registerRoutes()

	return server, nil
}

// NewServerWithServices builds a server around existing collaborators. pool may be nil,
// in which case the readiness check reports the database as unavailable.
func NewServerWithServices(pool *pgxpool.Pool, cfg *config.ServerEnvironment, logger *slog.Logger, services Services) *Server {
	server := &Server{
		pool:   pool,
		config: cfg,
		logger: logger,
		router: chi.NewRouter(),
	}
	if pool != nil {
		server.queries = database.New(pool)
	}

	server.useServices(services)
	server.setupMiddleware()
	server.registerRoutes()

	return server
}

// initServices creates the network clients and the login flow from the configuration
func (s *Server) initServices(ctx context.Context) (Services, error) {
	exec := apiclient.NewExecutor(s.config.HTTPClientTimeout)
	opToken := apiclient.OperationalToken(s.config.OperationalToken)

	gatewayClient := gateway.NewClient(s.config.GatewayURL, exec, opToken)
	identityClient := identity.NewClient(s.config.IdentityURL, exec, opToken, s.config.IdentityClientID)
	directoryClient := directory.NewClient(s.config.DirectoryURL, exec, keystore.NewFileStore(s.config.KeysDir), gatewayClient)

	var keys auth.KeySetProvider
	jwksCheck := handlers.ReadinessCheck{Name: "jwks"}
	if s.config.IdentityJWKSURL != "" {
		cache, err := auth.NewJWKSCache(ctx, auth.JWKSCacheConfig{
			URL:         s.config.IdentityJWKSURL,
			MinRefresh:  s.config.JWKCacheMinRefresh,
			MaxRefresh:  s.config.JWKCacheMaxRefresh,
			HTTPTimeout: s.config.JWKCacheHTTPTimeout,
		}, s.logger)
		if err != nil {
			return Services{}, fmt.Errorf("failed to initialize JWKS cache: %w", err)
		}
		keys = cache
		jwksCheck.Check = cache.Ready
	} else {
		s.logger.Warn("IDENTITY_JWKS_URL is not set - identity token signatures will not be verified")
	}

	validator := auth.NewValidator(s.config.ExpectedIssuer, s.config.ExpectedAudience, keys)

	s.logger.Info("network services configured",
		slog.String("directory_url", s.config.DirectoryURL),
		slog.String("gateway_url", s.config.GatewayURL),
		slog.String("identity_url", s.config.IdentityURL),
		slog.String("expected_issuer", s.config.ExpectedIssuer),
		slog.Bool("verify_signatures", validator.Verifying()))

	return Services{
		Sessions:      session.NewPostgresStore(s.queries, s.config.SessionTTL),
		Authenticator: auth.NewProvisioner(validator, s.queries, identityClient),
		Directory:     directoryClient,
		Gateway:       gatewayClient,
		Identity:      identityClient,
		Readiness:     []handlers.ReadinessCheck{jwksCheck},
	}, nil
}

func (s *Server) useServices(services Services) {
	s.sessions = services.Sessions
	s.readiness = append([]handlers.ReadinessCheck{handlers.DatabaseCheck(s.queries)}, services.Readiness...)
	s.loginHandler = handlers.NewLoginHandler(
		services.Authenticator,
		services.Sessions,
		s.config.SessionCookieName,
		s.config.DefaultRedirectPath,
		s.config.Environment != "dev",
	)
	s.networkHandler = handlers.NewNetworkHandler(services.Directory, services.Gateway, services.Identity)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(dbcmiddleware.SecurityHeaders(s.config.Environment))
	s.router.Use(dbcmiddleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(dbcmiddleware.RequestSizeLimit(s.config.MaxRequestBodyBytes))

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Max-Request-Size"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	s.router.Use(middleware.Timeout(requestTimeout))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health/live", handlers.HandleHealth)
	s.router.Get("/health/ready", handlers.HandleReadiness(s.readiness...))
	s.router.Get("/version", handlers.HandleVersion(version.Get(), "dbc-server"))
	s.router.Get("/swagger/doc.json", handlers.HandleOpenAPIDoc)

	// the identity provider redirects with the token in the query string
	s.router.Get("/login", s.loginHandler.HandleLogin)
	s.router.Post("/login", s.loginHandler.HandleLogin)
	s.router.Post("/logout", s.loginHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(dbcmiddleware.RequireSession(s.sessions, s.config.SessionCookieName))

		r.Get("/session", s.loginHandler.HandleSession)

		r.Get("/participants/{abn}/document-types", s.networkHandler.HandleListDocumentTypes)
		r.Get("/participants/{abn}/endpoints", s.networkHandler.HandleListEndpoints)
		r.Get("/participants/{abn}/keys", s.networkHandler.HandleGetPublicKey)

		r.Post("/keys", s.networkHandler.HandlePublishPublicKey)
		r.Post("/registration", s.networkHandler.HandleRegister)
		r.Post("/messages", s.networkHandler.HandleSubmitMessage)
		r.Get("/messages/{id}/status", s.networkHandler.HandleMessageStatus)
		r.Post("/customer/tokens", s.networkHandler.HandleMintCustomerToken)
	})
}

// Router returns the configured handler (used by tests)
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	go s.purgeSessions(ctx)

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// purgeSessions deletes expired sessions until ctx is cancelled
func (s *Server) purgeSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.Purge(ctx)
			if err != nil {
				s.logger.Warn("failed to purge expired sessions", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				s.logger.Debug("expired sessions purged", slog.Int64("count", n))
			}
		}
	}
}

func (s *Server) DatabaseShutdown() {
	if s.pool != nil {
		s.pool.Close()
		s.logger.Info("database connection closed")
	}
}
