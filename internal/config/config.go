package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=60s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	AllowedOrigins        []string      `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`
	MaxRequestBodyBytes   int64         `env:"MAX_REQUEST_BODY_BYTES,default=10485760"`

	// database settings
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	// session settings
	SessionTTL          time.Duration `env:"SESSION_TTL,default=12h"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME,default=dbc_session"`
	DefaultRedirectPath string        `env:"DEFAULT_REDIRECT_PATH,default=/dashboard"`

	// network services
	DirectoryURL      string        `env:"DIRECTORY_URL,default=https://dcp.testpoint.io"`
	GatewayURL        string        `env:"GATEWAY_URL,default=https://tap-gw.testpoint.io"`
	IdentityURL       string        `env:"IDENTITY_URL,default=https://idp-dev.tradewire.io"`
	IdentityClientID  string        `env:"IDENTITY_CLIENT_ID,default=274953"`
	HTTPClientTimeout time.Duration `env:"HTTP_CLIENT_TIMEOUT,default=30s"`

	// token federation
	ExpectedIssuer   string `env:"EXPECTED_ISSUER,default=https://idp.testpoint.io"`
	ExpectedAudience string `env:"EXPECTED_AUDIENCE"`
	IdentityJWKSURL  string `env:"IDENTITY_JWKS_URL"`

	// JWK cache settings (only used when IDENTITY_JWKS_URL is set)
	JWKCacheMinRefresh  time.Duration `env:"JWK_CACHE_MIN_REFRESH,default=10m"`
	JWKCacheMaxRefresh  time.Duration `env:"JWK_CACHE_MAX_REFRESH,default=12h"`
	JWKCacheHTTPTimeout time.Duration `env:"JWK_CACHE_HTTP_TIMEOUT,default=30s"`

	// KeysDir holds the participants' public key files (public_{abn}.key)
	KeysDir string `env:"KEYS_DIR,default=./data/keys"`

	// OperationalToken is the service credential used for the identity provider
	// and gateway status polling. It is never a user's token.
	OperationalToken string `env:"OPERATIONAL_TOKEN,required=true"`
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	if err := validateServerConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewClientConfig loads the settings needed by the CLI.
// Database and http server settings are ignored.
func NewClientConfig() (*ServerEnvironment, error) {
	return load()
}

func load() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig checks settings shared by the server and the CLI
func validateConfig(cfg *ServerEnvironment) error {
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	for name, value := range map[string]string{
		"DIRECTORY_URL": cfg.DirectoryURL,
		"GATEWAY_URL":   cfg.GatewayURL,
		"IDENTITY_URL":  cfg.IdentityURL,
	} {
		if err := validateURL(value); err != nil {
			return fmt.Errorf("%s is invalid: %w", name, err)
		}
	}

	if cfg.IdentityJWKSURL != "" {
		if err := validateURL(cfg.IdentityJWKSURL); err != nil {
			return fmt.Errorf("IDENTITY_JWKS_URL is invalid: %w", err)
		}
	}

	if cfg.OperationalToken == "" {
		return fmt.Errorf("OPERATIONAL_TOKEN must not be empty")
	}

	if cfg.ExpectedIssuer == "" {
		return fmt.Errorf("EXPECTED_ISSUER must not be empty")
	}

	if cfg.HTTPClientTimeout <= 0 {
		return fmt.Errorf("HTTP_CLIENT_TIMEOUT must be greater than 0")
	}

	return nil
}

// validateServerConfig checks the http server and database settings
func validateServerConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be greater than 0")
	}
	if cfg.SessionCookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if cfg.MaxRequestBodyBytes < 1 {
		return fmt.Errorf("MAX_REQUEST_BODY_BYTES must be at least 1")
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is empty")
	}
	return nil
}
