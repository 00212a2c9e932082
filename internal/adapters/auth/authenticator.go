package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/logging"
	"github.com/bnema/dubco-cli/internal/ports"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL        = "https://app.dub.co/oauth/authorize"
	DefaultTokenURL       = "https://api.dub.co/oauth/token"
	DefaultCallbackPort   = 8484
	DefaultCallbackAddr   = "127.0.0.1:8484"
	DefaultLoginTimeout   = 120 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

var DefaultScopes = []string{"links.read", "links.write", "tags.read", "user.read"}

var errSessionConsumed = errors.New("login session already completed")

type Config struct {
	ClientID       string
	AuthURL        string
	TokenURL       string
	Scopes         []string
	CallbackAddr   string
	CallbackPath   string
	LoginTimeout   time.Duration
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.CallbackAddr == "" {
		c.CallbackAddr = DefaultCallbackAddr
	}
	if c.CallbackPath == "" {
		c.CallbackPath = DefaultCallbackPath
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = DefaultLoginTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}

// Authenticator runs the PKCE authorization code flow against the Dub.co
// OAuth server and refreshes access tokens.
type Authenticator struct {
	cfg         Config
	store       ports.CredentialStore
	httpClient  *http.Client
	clock       ports.Clock
	openBrowser func(string) error
}

var _ ports.TokenRefresher = (*Authenticator)(nil)

type Option func(*Authenticator)

func WithHTTPClient(client *http.Client) Option {
	return func(a *Authenticator) {
		if client != nil {
			a.httpClient = client
		}
	}
}

func WithClock(clock ports.Clock) Option {
	return func(a *Authenticator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithBrowserOpener sets the function used to open the authorization URL.
// A nil opener disables opening a browser.
func WithBrowserOpener(open func(string) error) Option {
	return func(a *Authenticator) {
		a.openBrowser = open
	}
}

func NewAuthenticator(cfg Config, store ports.CredentialStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		cfg:         cfg.withDefaults(),
		store:       store,
		httpClient:  http.DefaultClient,
		clock:       ports.SystemClock{},
		openBrowser: OpenBrowser,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authenticator) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID: a.cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.cfg.AuthURL,
			TokenURL:  a.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURI,
		Scopes:      a.cfg.Scopes,
	}
}

func (a *Authenticator) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	return context.WithTimeout(ctx, a.cfg.RequestTimeout)
}

// Login runs the whole flow and persists the resulting tokens.
func (a *Authenticator) Login(ctx context.Context) (domain.TokenSet, error) {
	session, err := a.BeginLogin(ctx)
	if err != nil {
		return domain.TokenSet{}, err
	}
	defer func() { _ = session.Close() }()

	return session.Complete(ctx)
}

// BeginLogin starts the callback listener and opens the authorization URL.
// The caller must Complete or Close the returned session.
func (a *Authenticator) BeginLogin(ctx context.Context) (*LoginSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.cfg.ClientID == "" {
		return nil, domain.ErrMissingClientID
	}

	state, err := NewState()
	if err != nil {
		return nil, fmt.Errorf("generate oauth state: %w", err)
	}
	pkce := NewPKCEPair()

	server, err := StartCallbackServer(a.cfg.CallbackAddr, a.cfg.CallbackPath, state)
	if err != nil {
		return nil, fmt.Errorf("start callback server: %w", err)
	}

	oauthCfg := a.oauthConfig(server.RedirectURI())
	session := &LoginSession{
		auth:     a,
		server:   server,
		oauth:    oauthCfg,
		verifier: pkce.Verifier,
		authURL:  oauthCfg.AuthCodeURL(state, oauth2.S256ChallengeOption(pkce.Verifier)),
		state:    domain.LoginIdle,
	}
	session.setState(domain.LoginAwaitingCallback)

	log.WithField("redirect_uri", server.RedirectURI()).Debug("login: awaiting oauth callback")

	if a.openBrowser != nil {
		if err := a.openBrowser(session.authURL); err != nil {
			log.Debugf("login: could not open browser: %v", err)
		}
	}

	return session, nil
}

// Refresh exchanges the refresh token for a new TokenSet. A rejected grant is
// reported as domain.ErrRefreshExpired; transport failures are returned as
// plain errors so callers can treat them as transient.
func (a *Authenticator) Refresh(ctx context.Context, tokens domain.TokenSet) (domain.TokenSet, error) {
	if !tokens.CanRefresh() {
		return domain.TokenSet{}, &domain.AuthProtocolError{
			Kind:        domain.ErrRefreshExpired,
			Description: "no refresh token stored",
		}
	}

	requestCtx, cancel := a.requestContext(ctx)
	defer cancel()

	// An empty access token forces the source to hit the token endpoint.
	source := a.oauthConfig("").TokenSource(requestCtx, &oauth2.Token{RefreshToken: tokens.RefreshToken})
	refreshed, err := source.Token()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.TokenSet{}, ctxErr
		}
		return domain.TokenSet{}, classifyGrantError(domain.ErrRefreshExpired, err)
	}

	logging.Entry(ctx).Debug("auth: access token refreshed")
	return a.toTokenSet(refreshed), nil
}

func (a *Authenticator) toTokenSet(token *oauth2.Token) domain.TokenSet {
	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = domain.ExpiryFromLifetime(a.clock.Now(), 0)
	}

	return domain.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    expiresAt,
	}
}

// LoginSession is one PKCE attempt. It owns the callback listener and the
// verifier, both discarded once the session ends.
type LoginSession struct {
	auth     *Authenticator
	server   *CallbackServer
	oauth    *oauth2.Config
	verifier string
	authURL  string

	mu    sync.Mutex
	state domain.LoginState
}

func (s *LoginSession) AuthURL() string {
	return s.authURL
}

func (s *LoginSession) RedirectURI() string {
	return s.server.RedirectURI()
}

func (s *LoginSession) State() domain.LoginState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *LoginSession) setState(state domain.LoginState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.WithField("state", state).Debugf("login: %s -> %s", s.state, state)
	s.state = state
}

// Complete waits for the callback, exchanges the code and saves the tokens.
func (s *LoginSession) Complete(ctx context.Context) (domain.TokenSet, error) {
	s.mu.Lock()
	if s.state != domain.LoginAwaitingCallback {
		s.mu.Unlock()
		return domain.TokenSet{}, errSessionConsumed
	}
	s.mu.Unlock()

	code, err := s.server.WaitForCode(ctx, s.auth.cfg.LoginTimeout)
	if err != nil {
		s.setState(domain.LoginFailed)
		return domain.TokenSet{}, err
	}

	s.setState(domain.LoginExchanging)
	log.Debug("login: exchanging authorization code")

	requestCtx, cancel := s.auth.requestContext(ctx)
	defer cancel()

	token, err := s.oauth.Exchange(requestCtx, code, oauth2.VerifierOption(s.verifier))
	if err != nil {
		s.setState(domain.LoginFailed)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.TokenSet{}, ctxErr
		}
		return domain.TokenSet{}, classifyGrantError(domain.ErrTokenExchange, err)
	}

	tokens := s.auth.toTokenSet(token)
	if err := s.auth.store.Save(ctx, tokens); err != nil {
		s.setState(domain.LoginFailed)
		return domain.TokenSet{}, err
	}

	s.setState(domain.LoginAuthenticated)
	return tokens, nil
}

func (s *LoginSession) Close() error {
	return s.server.Close()
}

// classifyGrantError maps an oauth2 failure to the auth error taxonomy. For
// refresh grants only an upstream rejection means the refresh token is dead.
func classifyGrantError(kind error, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		if errors.Is(kind, domain.ErrRefreshExpired) {
			return fmt.Errorf("refresh access token: %w", err)
		}
		return &domain.AuthProtocolError{Kind: kind, Err: err}
	}

	status := 0
	if retrieveErr.Response != nil {
		status = retrieveErr.Response.StatusCode
	}

	if errors.Is(kind, domain.ErrRefreshExpired) && !refreshRejected(retrieveErr.ErrorCode, status) {
		return fmt.Errorf("refresh access token (status %d): %w", status, err)
	}

	return &domain.AuthProtocolError{
		Kind:        kind,
		StatusCode:  status,
		Code:        retrieveErr.ErrorCode,
		Description: retrieveErr.ErrorDescription,
		Err:         err,
	}
}

func refreshRejected(code string, status int) bool {
	switch code {
	case "invalid_grant", "invalid_client", "unauthorized_client":
		return true
	}
	return status == http.StatusBadRequest || status == http.StatusUnauthorized
}
