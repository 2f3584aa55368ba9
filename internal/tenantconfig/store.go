// Package tenantconfig resolves the metering-provider credentials for a
// tenant. Credentials live in a yaml file watched for changes; a tenant with
// no entry falls back to process-wide environment variables so single-tenant
// deployments need no file at all.
package tenantconfig

import (
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	EnvAPIKey  = "METERING_API_KEY"
	EnvBaseURL = "METERING_BASE_URL"
	EnvRegion  = "METERING_REGION"

	DefaultBaseURL = "https://app.amberflo.io/usage/events"
)

// Credentials identify this deployment to the metering provider.
type Credentials struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Region  string `mapstructure:"region"`
}

// Configured reports whether an API key is present.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Store holds the per-tenant credential snapshot. Reads are lock-free apart
// from an RWMutex; the snapshot is swapped wholesale on reload.
type Store struct {
	log *zap.Logger

	mu      sync.RWMutex
	tenants map[string]Credentials
}

// NewStore loads the credentials file (optional) and starts watching it.
func NewStore(path string, log *zap.Logger) (*Store, error) {
	s := &Store{
		log:     log.Named("tenantconfig"),
		tenants: map[string]Credentials{},
	}

	path = strings.TrimSpace(path)
	if path == "" {
		s.log.Info("no tenant config file, using environment credentials only")
		return s, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := s.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.reload(v); err != nil {
			s.log.Error("tenant config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		s.log.Info("tenant config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return s, nil
}

func (s *Store) reload(v *viper.Viper) error {
	var raw struct {
		Tenants map[string]Credentials `mapstructure:"tenants"`
	}
	if err := v.Unmarshal(&raw); err != nil {
		return err
	}

	tenants := make(map[string]Credentials, len(raw.Tenants))
	for id, creds := range raw.Tenants {
		tenants[strings.ToLower(strings.TrimSpace(id))] = creds
	}

	s.mu.Lock()
	s.tenants = tenants
	s.mu.Unlock()
	return nil
}

// For returns the credentials for the tenant, falling back to environment
// variables field by field the way the original plugin properties did.
func (s *Store) For(tenantID uuid.UUID) Credentials {
	s.mu.RLock()
	creds := s.tenants[strings.ToLower(tenantID.String())]
	s.mu.RUnlock()

	if strings.TrimSpace(creds.APIKey) == "" {
		creds.APIKey = strings.TrimSpace(os.Getenv(EnvAPIKey))
	}
	if strings.TrimSpace(creds.BaseURL) == "" {
		creds.BaseURL = strings.TrimSpace(os.Getenv(EnvBaseURL))
	}
	if strings.TrimSpace(creds.BaseURL) == "" {
		creds.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(creds.Region) == "" {
		creds.Region = strings.TrimSpace(os.Getenv(EnvRegion))
	}
	return creds
}
