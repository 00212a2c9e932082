package cmd

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/dubco-cli/internal/adapters/api"
	authadapter "github.com/bnema/dubco-cli/internal/adapters/auth"
	"github.com/bnema/dubco-cli/internal/adapters/credentials"
	chainstore "github.com/bnema/dubco-cli/internal/adapters/secrets/chain"
	filestore "github.com/bnema/dubco-cli/internal/adapters/secrets/file"
	settingstoml "github.com/bnema/dubco-cli/internal/adapters/settings/toml"
	"github.com/bnema/dubco-cli/internal/application"
	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/ports"
	"github.com/bnema/dubco-cli/internal/version"
	"github.com/spf13/viper"
)

// openBrowser is swapped out by tests.
var openBrowser = authadapter.OpenBrowser

type app struct {
	opts       *globalOptions
	settings   *settingstoml.Repository
	httpClient *http.Client

	mu   sync.Mutex
	deps *dependencies
}

type dependencies struct {
	settings    domain.Settings
	credentials ports.CredentialStore
	service     *application.Service
}

func wireApp(opts *globalOptions) (*app, error) {
	dir, err := settingstoml.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}

	repo, err := settingstoml.NewRepository(viper.New(), dir, settingstoml.Defaults{
		APIBaseURL:   api.DefaultBaseURL,
		AuthorizeURL: authadapter.DefaultAuthURL,
		TokenURL:     authadapter.DefaultTokenURL,
		CallbackPort: authadapter.DefaultCallbackPort,
	})
	if err != nil {
		return nil, fmt.Errorf("wire settings: %w", err)
	}

	return &app{
		opts:       opts,
		settings:   repo,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// dependencies builds the API stack once flags have been parsed, since the
// profile selects which credentials are used.
func (a *app) dependencies(ctx context.Context) (*dependencies, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.deps != nil {
		return a.deps, nil
	}

	settings, err := a.settings.Load(ctx)
	if err != nil {
		return nil, err
	}

	secrets, err := newSecretStore(settings.CredentialsBackend, a.settings.Dir())
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	creds := credentials.NewStore(secrets, a.opts.profile)
	refresher := a.authenticator(settings, creds, settings.ClientID, 0)
	session := api.NewSession(creds, refresher, ports.SystemClock{}, api.DefaultRefreshSkew)

	executor, err := api.NewExecutor(settings.APIBaseURL, session,
		api.WithHTTPClient(a.httpClient),
		api.WithUserAgent("dubco-cli/"+version.Version),
	)
	if err != nil {
		return nil, fmt.Errorf("wire api executor: %w", err)
	}

	bulk := application.NewOrchestrator(executor,
		application.WithConcurrency(settings.BulkConcurrency),
		application.WithRateLimit(settings.BulkRequestsPerSecond),
	)

	a.deps = &dependencies{
		settings:    settings,
		credentials: creds,
		service:     application.NewService(executor, bulk),
	}
	return a.deps, nil
}

func (a *app) authenticator(settings domain.Settings, store ports.CredentialStore, clientID string, loginTimeout time.Duration, opts ...authadapter.Option) *authadapter.Authenticator {
	cfg := authadapter.Config{
		ClientID:     clientID,
		AuthURL:      settings.AuthorizeURL,
		TokenURL:     settings.TokenURL,
		CallbackAddr: fmt.Sprintf("127.0.0.1:%d", settings.CallbackPort),
		LoginTimeout: loginTimeout,
	}

	base := []authadapter.Option{
		authadapter.WithHTTPClient(a.httpClient),
		authadapter.WithBrowserOpener(openBrowser),
	}
	return authadapter.NewAuthenticator(cfg, store, append(base, opts...)...)
}

func newSecretStore(backend string, dir string) (ports.SecretStore, error) {
	switch backend {
	case domain.CredentialsBackendKeyring:
		return chainstore.NewKeyringFirstWithFileFallback(dir)
	case domain.CredentialsBackendPass:
		return chainstore.NewPassFirstWithFileFallback(dir)
	default:
		return filestore.NewStore(dir), nil
	}
}
