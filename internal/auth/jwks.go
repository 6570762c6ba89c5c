package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// KeySetProvider supplies the keys used to verify identity tokens
type KeySetProvider interface {
	KeySet(ctx context.Context) (jwk.Set, error)
}

// StaticKeySet is a fixed key set, used when the keys are configured rather than fetched
type StaticKeySet struct {
	Set jwk.Set
}

func (s StaticKeySet) KeySet(ctx context.Context) (jwk.Set, error) {
	return s.Set, nil
}

// JWKSCacheConfig controls how often the identity provider's JWK set is refreshed
type JWKSCacheConfig struct {
	URL         string
	MinRefresh  time.Duration
	MaxRefresh  time.Duration
	HTTPTimeout time.Duration
}

// JWKSCache keeps the identity provider's JWK set up to date.
// The set is fetched in the background so a slow or unavailable provider does not block startup.
type JWKSCache struct {
	cache  *jwk.Cache
	url    string
	logger *slog.Logger
}

// NewJWKSCache creates the cache and registers the JWKS endpoint.
// ctx controls the lifetime of the background refresh.
func NewJWKSCache(ctx context.Context, cfg JWKSCacheConfig, logger *slog.Logger) (*JWKSCache, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}

	client := httprc.NewClient()

	cache, err := jwk.NewCache(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWK cache: %w", err)
	}

	err = cache.Register(ctx, cfg.URL,
		jwk.WithMinInterval(cfg.MinRefresh),
		jwk.WithMaxInterval(cfg.MaxRefresh),
		jwk.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		jwk.WithWaitReady(false), // fetch in background
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register JWKS endpoint %s: %w", cfg.URL, err)
	}

	logger.Info("registered JWKS endpoint for background fetch", slog.String("jwks_url", cfg.URL))

	return &JWKSCache{cache: cache, url: cfg.URL, logger: logger}, nil
}

// KeySet returns the cached set. If the background fetch has not completed yet the set is fetched now.
func (j *JWKSCache) KeySet(ctx context.Context) (jwk.Set, error) {
	set, err := j.cache.Lookup(ctx, j.url)
	if err == nil {
		return set, nil
	}

	j.logger.Debug("JWK set not ready - fetching", slog.String("jwks_url", j.url), slog.String("error", err.Error()))

	set, err = j.cache.Refresh(ctx, j.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWK set from %s: %w", j.url, err)
	}
	return set, nil
}

// Ready reports an error until the first JWK set has been fetched
func (j *JWKSCache) Ready(ctx context.Context) error {
	if _, err := j.cache.Lookup(ctx, j.url); err != nil {
		return fmt.Errorf("JWK set from %s is not loaded: %w", j.url, err)
	}
	return nil
}
