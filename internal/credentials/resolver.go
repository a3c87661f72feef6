package credentials

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Checker-Finance/appstore/pkg/secrets"
)

// ErrMissingAPIKey is returned when a secret exists but carries no api_key.
var ErrMissingAPIKey = errors.New("secret has no api_key")

// Credentials identify an application to the appstore auth endpoint.
type Credentials struct {
	APIKey  string
	AppSlug string
}

// Resolver loads application credentials from a secrets Provider,
// caching results locally to reduce API calls.
//
// Secret naming convention: {env}/appstore/{appSlug}
type Resolver struct {
	logger   *zap.Logger
	env      string
	provider secrets.Provider
	cache    *secrets.Cache[Credentials]
}

// NewResolver constructs a credentials resolver for one deployment environment.
func NewResolver(logger *zap.Logger, env string, provider secrets.Provider, cache *secrets.Cache[Credentials]) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		logger:   logger,
		env:      env,
		provider: provider,
		cache:    cache,
	}
}

func (r *Resolver) prefix() string {
	return strings.ToLower(r.env) + "/appstore/"
}

// SecretName returns the secret holding credentials for appSlug.
func (r *Resolver) SecretName(appSlug string) string {
	return r.prefix() + strings.ToLower(appSlug)
}

// Resolve returns credentials for appSlug from cache or the provider.
// The secret's app_slug overrides the requested one when present.
func (r *Resolver) Resolve(ctx context.Context, appSlug string) (Credentials, error) {
	key := strings.ToLower(appSlug)
	if creds, ok := r.cache.Get(key); ok {
		return creds, nil
	}

	name := r.SecretName(appSlug)
	secret, err := r.provider.GetSecret(ctx, name)
	if err != nil {
		r.logger.Warn("credentials.secret_fetch_failed",
			zap.String("key", name),
			zap.Error(err))
		return Credentials{}, fmt.Errorf("resolve credentials for %q: %w", appSlug, err)
	}

	creds := Credentials{APIKey: secret["api_key"], AppSlug: secret["app_slug"]}
	if creds.APIKey == "" {
		return Credentials{}, fmt.Errorf("parse secret %q: %w", name, ErrMissingAPIKey)
	}
	if creds.AppSlug == "" {
		creds.AppSlug = appSlug
	}

	r.cache.Put(key, creds)
	r.logger.Info("credentials.resolved", zap.String("app", creds.AppSlug))
	return creds, nil
}

// DiscoverApps lists the app slugs that have credentials stored for this environment.
func (r *Resolver) DiscoverApps(ctx context.Context) ([]string, error) {
	prefix := r.prefix()

	names, err := r.provider.ListSecrets(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("discover apps: %w", err)
	}

	var apps []string
	for _, name := range names {
		slug := strings.TrimPrefix(strings.ToLower(name), prefix)
		if slug == strings.ToLower(name) || slug == "" || strings.Contains(slug, "/") {
			continue
		}
		apps = append(apps, slug)
	}
	sort.Strings(apps)

	r.logger.Debug("credentials.apps_discovered", zap.Int("count", len(apps)))
	return apps, nil
}
