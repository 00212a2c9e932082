package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/logging"
	"github.com/bnema/dubco-cli/internal/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshSkew treats tokens this close to expiry as already expired.
const DefaultRefreshSkew = 30 * time.Second

var ErrPersistCredentials = errors.New("persist refreshed credentials")

// Session owns the process's view of the stored TokenSet. Credentials are
// loaded on first use; refreshes are serialized so concurrent callers that
// hit an expired or rejected token share a single refresh.
type Session struct {
	store     ports.CredentialStore
	refresher ports.TokenRefresher
	clock     ports.Clock
	skew      time.Duration

	mu     sync.Mutex
	loaded bool
	found  bool
	tokens domain.TokenSet

	refreshGroup singleflight.Group
}

func NewSession(store ports.CredentialStore, refresher ports.TokenRefresher, clock ports.Clock, skew time.Duration) *Session {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if skew <= 0 {
		skew = DefaultRefreshSkew
	}

	return &Session{
		store:     store,
		refresher: refresher,
		clock:     clock,
		skew:      skew,
	}
}

// Token returns an access token that is valid for at least the refresh skew,
// refreshing it first when needed.
func (s *Session) Token(ctx context.Context) (domain.TokenSet, error) {
	tokens, err := s.current(ctx)
	if err != nil {
		return domain.TokenSet{}, err
	}

	if !tokens.ExpiringWithin(s.clock.Now(), s.skew) {
		return tokens, nil
	}

	logging.Entry(ctx).Debug("session: access token expired, refreshing")
	return s.refresh(ctx, tokens)
}

// ForceRefresh is used after the server rejected stale. If another caller
// already replaced it, the replacement is returned without a new refresh.
func (s *Session) ForceRefresh(ctx context.Context, stale domain.TokenSet) (domain.TokenSet, error) {
	if replaced, ok := s.replacementFor(stale); ok {
		return replaced, nil
	}

	return s.refresh(ctx, stale)
}

func (s *Session) current(ctx context.Context) (domain.TokenSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		tokens, found, err := s.store.Load(ctx)
		if err != nil {
			return domain.TokenSet{}, err
		}
		s.loaded = true
		s.found = found
		s.tokens = tokens
	}

	if !s.found {
		return domain.TokenSet{}, domain.ErrNotAuthenticated
	}

	return s.tokens, nil
}

func (s *Session) replacementFor(stale domain.TokenSet) (domain.TokenSet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.found || s.tokens.AccessToken == stale.AccessToken {
		return domain.TokenSet{}, false
	}
	if s.tokens.ExpiringWithin(s.clock.Now(), s.skew) {
		return domain.TokenSet{}, false
	}
	return s.tokens, true
}

// refresh joins the in-flight refresh or starts one. The refresh itself is
// detached from ctx so one caller giving up does not fail the others; each
// caller stops waiting when its own ctx is done.
func (s *Session) refresh(ctx context.Context, stale domain.TokenSet) (domain.TokenSet, error) {
	logger := logging.Entry(ctx)
	refreshCtx := context.WithoutCancel(ctx)

	results := s.refreshGroup.DoChan("refresh", func() (any, error) {
		if replaced, ok := s.replacementFor(stale); ok {
			return replaced, nil
		}

		refreshed, err := s.refresher.Refresh(refreshCtx, stale)
		if err != nil {
			if errors.Is(err, domain.ErrRefreshExpired) {
				logger.Debugf("session: refresh rejected, clearing stored credentials: %v", err)
				if clearErr := s.store.Clear(refreshCtx); clearErr != nil {
					logger.Warnf("session: clear credentials: %v", clearErr)
				}
				s.forget()
				return nil, fmt.Errorf("%w: %w", domain.ErrNotAuthenticated, err)
			}
			return nil, err
		}

		if err := s.store.Save(refreshCtx, refreshed); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersistCredentials, err)
		}

		s.mu.Lock()
		s.loaded = true
		s.found = true
		s.tokens = refreshed
		s.mu.Unlock()

		return refreshed, nil
	})

	select {
	case <-ctx.Done():
		return domain.TokenSet{}, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return domain.TokenSet{}, result.Err
		}
		if result.Shared {
			logger.Debug("session: token refresh shared with concurrent callers")
		}
		return result.Val.(domain.TokenSet), nil
	}
}

func (s *Session) forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.found = false
	s.tokens = domain.TokenSet{}
}
