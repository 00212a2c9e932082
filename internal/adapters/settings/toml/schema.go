package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version      int               `toml:"version"`
	ClientID     string            `toml:"client_id,omitempty"`
	APIBaseURL   string            `toml:"api_base_url,omitempty"`
	AuthorizeURL string            `toml:"authorize_url,omitempty"`
	TokenURL     string            `toml:"token_url,omitempty"`
	CallbackPort int               `toml:"callback_port,omitempty"`
	Credentials  credentialsSchema `toml:"credentials"`
	Bulk         bulkSchema        `toml:"bulk"`
}

type credentialsSchema struct {
	Backend string `toml:"backend,omitempty"`
}

type bulkSchema struct {
	Concurrency       int     `toml:"concurrency,omitempty"`
	RequestsPerSecond float64 `toml:"requests_per_second,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported config schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}
