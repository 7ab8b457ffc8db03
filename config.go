package gitpress

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for a gitpress server.
type Config struct {
	Addr          string `toml:"addr"`           // listen address (default ":3000")
	AllowedOrigin string `toml:"allowed_origin"` // CMS UI origin for CORS (default "*")

	Repo RepoConfig `toml:"repo"` // remote repository used as the content store

	// ContentToken is the server-side credential used for the public read
	// endpoints and the post cache. Admin operations always use the caller's
	// own credential from the request header.
	ContentToken string `toml:"content_token"`

	MaxUploadSize int64         `toml:"max_upload_size"` // upload ceiling in bytes (default 5MB)
	PostCacheTTL  time.Duration `toml:"post_cache_ttl"`  // public post cache TTL (default 5min)

	// Defaults returned by the settings endpoint until the settings document
	// is first saved.
	DefaultSettings SiteSettings `toml:"default_settings"`
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.AllowedOrigin == "" {
		c.AllowedOrigin = "*"
	}
	if c.MaxUploadSize == 0 {
		c.MaxUploadSize = 5 << 20
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	c.Repo.setDefaults()
}

// LoadConfigFile reads a Config from a TOML file. Values absent from the file
// keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if _, err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance before
// the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithAppHTTPClient sets the shared http.Client used for all remote-store
// calls. Useful for tests and for callers that need custom transports.
func WithAppHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}
