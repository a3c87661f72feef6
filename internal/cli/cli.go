// Package cli implements the appstore command line tool.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/Checker-Finance/appstore/internal/credentials"
	"github.com/Checker-Finance/appstore/pkg/appstore"
	"github.com/Checker-Finance/appstore/pkg/config"
	"github.com/Checker-Finance/appstore/pkg/secrets"
)

// Options are the global flags; each overrides its environment counterpart.
type Options struct {
	Token       string `short:"t" long:"token" description:"bearer token from a previous auth; authenticates first when omitted"`
	App         string `short:"a" long:"app" description:"app slug (APPSTORE_APP_SLUG)"`
	User        string `short:"u" long:"user" description:"user id (APPSTORE_USER_ID)"`
	Environment string `short:"e" long:"environment" description:"production or development (APPSTORE_ENVIRONMENT)"`
	BaseURL     string `long:"base-url" description:"explicit API base URL (APPSTORE_BASE_URL)"`
}

// ProviderFactory opens the secrets backend used when no API key is configured.
type ProviderFactory func(ctx context.Context, region string) (secrets.Provider, error)

// Runner parses arguments and executes one command.
type Runner struct {
	cfg         *config.Client
	logger      *zap.Logger
	out         io.Writer
	httpClient  *http.Client
	newProvider ProviderFactory

	ctx     context.Context
	opts    Options
	session *appstore.Session
}

// New creates a Runner writing command output to out.
func New(cfg *config.Client, logger *zap.Logger, out io.Writer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		out:    out,
		newProvider: func(ctx context.Context, region string) (secrets.Provider, error) {
			return secrets.NewAWSProvider(ctx, region)
		},
	}
}

// WithHTTPClient overrides the transport used for API calls.
func (r *Runner) WithHTTPClient(c *http.Client) *Runner {
	r.httpClient = c
	return r
}

// WithProviderFactory overrides how the secrets backend is opened.
func (r *Runner) WithProviderFactory(f ProviderFactory) *Runner {
	r.newProvider = f
	return r
}

// Run executes the command named in args.
func (r *Runner) Run(ctx context.Context, args []string) error {
	r.ctx = ctx
	parser := flags.NewParser(&r.opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "appstore"

	commands := []struct {
		name, short string
		data        any
	}{
		{"auth", "Authenticate and print the token and user", &authCommand{r: r}},
		{"get", "Read a key from the user's datastore", &getCommand{r: r}},
		{"set", "Write a key to the user's datastore", &setCommand{r: r}},
		{"submit", "Submit results for the user", &submitCommand{r: r}},
		{"apps", "List apps with stored credentials", &appsCommand{r: r}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, "", c.data); err != nil {
			return err
		}
	}

	_, err := parser.ParseArgs(args)
	return err
}

// IsHelp reports whether err is go-flags' request to show usage.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

func (r *Runner) resolver() (*credentials.Resolver, error) {
	provider, err := r.newProvider(r.ctx, r.cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	cache := secrets.NewCache[credentials.Credentials](r.cfg.SecretsCacheTTL)
	return credentials.NewResolver(r.logger, r.cfg.Env, provider, cache), nil
}

func (r *Runner) clientConfig() (appstore.Config, error) {
	cfg := appstore.Config{
		APIKey:      r.cfg.APIKey,
		AppSlug:     firstNonEmpty(r.opts.App, r.cfg.AppSlug),
		UserID:      firstNonEmpty(r.opts.User, r.cfg.UserID),
		BaseURL:     firstNonEmpty(r.opts.BaseURL, r.cfg.BaseURL),
		HTTPTimeout: r.cfg.HTTPTimeout,
	}
	env, err := appstore.ParseEnvironment(firstNonEmpty(r.opts.Environment, r.cfg.Environment))
	if err != nil {
		return appstore.Config{}, err
	}
	cfg.Environment = env

	if cfg.APIKey == "" && cfg.AppSlug != "" {
		res, err := r.resolver()
		if err != nil {
			return appstore.Config{}, err
		}
		creds, err := res.Resolve(r.ctx, cfg.AppSlug)
		if err != nil {
			return appstore.Config{}, err
		}
		cfg.APIKey, cfg.AppSlug = creds.APIKey, creds.AppSlug
	}
	return cfg, nil
}

func (r *Runner) sessionFor() (*appstore.Session, error) {
	if r.session != nil {
		return r.session, nil
	}
	cfg, err := r.clientConfig()
	if err != nil {
		return nil, err
	}
	opts := []appstore.Option{appstore.WithLogger(r.logger)}
	if r.httpClient != nil {
		opts = append(opts, appstore.WithHTTPClient(r.httpClient))
	}
	c, err := appstore.NewClient(cfg, opts...)
	if err != nil {
		return nil, err
	}
	r.session = appstore.NewSession(c)
	return r.session, nil
}

func (r *Runner) print(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
