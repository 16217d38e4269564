package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=production"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	BackendURL string `env:"BACKEND_URL, default=http://localhost:8000/api"`
	RolesFile  string `env:"ROLES_FILE"`
	StaticDir  string `env:"STATIC_DIR,  default=./web"`

	// EdgeJWTSecret switches the edge gate from cookie presence to HS256
	// verification when set.
	EdgeJWTSecret string `env:"EDGE_JWT_SECRET"`

	Proxy ProxyConfig
	Redis RedisConfig
	Audit AuditConfig
}

type ProxyConfig struct {
	Mount   string        `env:"PROXY_MOUNT,   default=/api/proxy"`
	Cookie  string        `env:"PROXY_COOKIE,  default=service_provider_token"`
	Timeout time.Duration `env:"PROXY_TIMEOUT, default=30s"`
}

type RedisConfig struct {
	Enabled  bool          `env:"REDIS_ENABLED,       default=false"`
	Addr     string        `env:"REDIS_ADDR,          default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,            default=0"`
	TTL      time.Duration `env:"PRINCIPAL_CACHE_TTL, default=30s"`
}

type AuditConfig struct {
	Enabled   bool          `env:"AUDIT_ENABLED,   default=false"`
	MongoURI  string        `env:"MONGO_URI,       default=mongodb://localhost:27017"`
	Database  string        `env:"MONGO_DB,        default=storefront_gateway"`
	Workers   int           `env:"AUDIT_WORKERS,   default=4"`
	Retention time.Duration `env:"AUDIT_RETENTION, default=720h"`
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !strings.HasPrefix(cfg.Proxy.Mount, "/") {
		cfg.Proxy.Mount = "/" + cfg.Proxy.Mount
	}
	cfg.Proxy.Mount = strings.TrimRight(cfg.Proxy.Mount, "/")
	if cfg.Proxy.Mount == "" {
		return nil, fmt.Errorf("load config: PROXY_MOUNT must not be /")
	}
	return &cfg, nil
}
