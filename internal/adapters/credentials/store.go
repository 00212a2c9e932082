package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/ports"
)

const (
	DefaultProfile = "default"
	credentialsKey = "credentials.json"
)

// Store persists a TokenSet as JSON inside a SecretStore entry. Each profile
// gets its own entry.
type Store struct {
	secrets ports.SecretStore
	key     string
}

var _ ports.CredentialStore = (*Store)(nil)

func NewStore(secrets ports.SecretStore, profile string) *Store {
	return &Store{secrets: secrets, key: KeyForProfile(profile)}
}

func KeyForProfile(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" || profile == DefaultProfile {
		return credentialsKey
	}
	return path.Join("profiles", profile, credentialsKey)
}

func (s *Store) Load(ctx context.Context) (domain.TokenSet, bool, error) {
	raw, err := s.secrets.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return domain.TokenSet{}, false, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.TokenSet{}, false, err
		}
		return domain.TokenSet{}, false, fmt.Errorf("%w: %w", domain.ErrCredentialCorrupt, err)
	}

	if strings.TrimSpace(raw) == "" {
		return domain.TokenSet{}, false, nil
	}

	var tokens domain.TokenSet
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return domain.TokenSet{}, false, fmt.Errorf("%w: %v", domain.ErrCredentialCorrupt, err)
	}
	if err := tokens.Validate(); err != nil {
		return domain.TokenSet{}, false, fmt.Errorf("%w: %v", domain.ErrCredentialCorrupt, err)
	}

	return tokens, true, nil
}

func (s *Store) Save(ctx context.Context, tokens domain.TokenSet) error {
	if err := tokens.Validate(); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := s.secrets.Put(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.secrets.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
