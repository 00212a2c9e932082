package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/dubco-cli/internal/domain"
	"github.com/bnema/dubco-cli/internal/ports"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	configFile      = "config.toml"
	envFile         = ".env"
	envPrefix       = "DUB"
	appDir          = "dubco"
	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".config-*.toml.tmp"

	keyClientID              = "client_id"
	keyAPIBaseURL            = "api_base_url"
	keyAuthorizeURL          = "authorize_url"
	keyTokenURL              = "token_url"
	keyCallbackPort          = "callback_port"
	keyCredentialsBackend    = "credentials.backend"
	keyBulkConcurrency       = "bulk.concurrency"
	keyBulkRequestsPerSecond = "bulk.requests_per_second"
)

// Defaults holds values used when neither the file nor the environment
// sets a key.
type Defaults struct {
	APIBaseURL   string
	AuthorizeURL string
	TokenURL     string
	CallbackPort int
}

type Repository struct {
	cfg  *viper.Viper
	dir  string
	path string
	mu   sync.Mutex
}

var _ ports.SettingsRepository = (*Repository)(nil)

// ConfigDir returns $XDG_CONFIG_HOME/dubco, falling back to ~/.config/dubco.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", appDir), nil
}

// NewRepository reads config.toml from dir. Values from a .env file in dir
// and DUB_* environment variables take precedence over the file.
func NewRepository(cfg *viper.Viper, dir string, defaults Defaults) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if dir == "" {
		return nil, errors.New("config directory is empty")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve config directory: %w", err)
	}

	if err := godotenv.Load(filepath.Join(absDir, envFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(absDir)
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(keyAPIBaseURL, defaults.APIBaseURL)
	cfg.SetDefault(keyAuthorizeURL, defaults.AuthorizeURL)
	cfg.SetDefault(keyTokenURL, defaults.TokenURL)
	cfg.SetDefault(keyCallbackPort, defaults.CallbackPort)
	cfg.SetDefault(keyCredentialsBackend, domain.CredentialsBackendFile)
	cfg.SetDefault(keyBulkConcurrency, 1)
	cfg.SetDefault(keyBulkRequestsPerSecond, 0)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Repository{cfg: cfg, dir: absDir, path: filepath.Join(absDir, configFile)}, nil
}

func (r *Repository) Dir() string {
	return r.dir
}

func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	settings := domain.Settings{
		ClientID:              strings.TrimSpace(r.cfg.GetString(keyClientID)),
		APIBaseURL:            strings.TrimRight(r.cfg.GetString(keyAPIBaseURL), "/"),
		AuthorizeURL:          r.cfg.GetString(keyAuthorizeURL),
		TokenURL:              r.cfg.GetString(keyTokenURL),
		CallbackPort:          r.cfg.GetInt(keyCallbackPort),
		CredentialsBackend:    strings.ToLower(r.cfg.GetString(keyCredentialsBackend)),
		BulkConcurrency:       r.cfg.GetInt(keyBulkConcurrency),
		BulkRequestsPerSecond: r.cfg.GetFloat64(keyBulkRequestsPerSecond),
	}

	switch settings.CredentialsBackend {
	case domain.CredentialsBackendFile, domain.CredentialsBackendKeyring, domain.CredentialsBackendPass:
	default:
		return domain.Settings{}, fmt.Errorf("unknown credentials backend %q: use file, keyring or pass", settings.CredentialsBackend)
	}
	if settings.BulkConcurrency < 1 {
		settings.BulkConcurrency = 1
	}
	if settings.CallbackPort < 0 || settings.CallbackPort > 65535 {
		return domain.Settings{}, fmt.Errorf("callback port %d out of range", settings.CallbackPort)
	}

	return settings, nil
}

func (r *Repository) Update(ctx context.Context, fn func(*domain.Settings)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	settings := fromSchema(file)
	fn(&settings)
	updated := toSchema(settings)

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := r.writeSchema(updated); err != nil {
		return err
	}

	if err := r.cfg.ReadInConfig(); err != nil {
		return fmt.Errorf("reload config file: %w", err)
	}

	return nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read config file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode config file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(r.dir, configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	tempFile, err := os.CreateTemp(r.dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}

	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp config file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(settings domain.Settings) fileSchema {
	return fileSchema{
		Version:      currentSchemaVersion,
		ClientID:     settings.ClientID,
		APIBaseURL:   settings.APIBaseURL,
		AuthorizeURL: settings.AuthorizeURL,
		TokenURL:     settings.TokenURL,
		CallbackPort: settings.CallbackPort,
		Credentials:  credentialsSchema{Backend: settings.CredentialsBackend},
		Bulk: bulkSchema{
			Concurrency:       settings.BulkConcurrency,
			RequestsPerSecond: settings.BulkRequestsPerSecond,
		},
	}
}

func fromSchema(file fileSchema) domain.Settings {
	return domain.Settings{
		ClientID:              file.ClientID,
		APIBaseURL:            file.APIBaseURL,
		AuthorizeURL:          file.AuthorizeURL,
		TokenURL:              file.TokenURL,
		CallbackPort:          file.CallbackPort,
		CredentialsBackend:    file.Credentials.Backend,
		BulkConcurrency:       file.Bulk.Concurrency,
		BulkRequestsPerSecond: file.Bulk.RequestsPerSecond,
	}
}
