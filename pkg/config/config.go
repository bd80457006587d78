package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Webhook      WebhookConfig
	Clerk        ClerkConfig
	Guard        GuardConfig
	Upstream     UpstreamConfig
	FeatureFlags FeatureFlagsConfig
}

// MissingSecretError reports a deployment without a webhook signing secret.
// Unsigned events are never accepted, so the process must not start.
type MissingSecretError struct {
	Env string
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("%s is required: add the signing secret from the Clerk dashboard to the environment or .env", e.Env)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase parses the environment but validates only the database
// section, for tooling that never serves webhook traffic.
func LoadDatabase() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validateDB(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validateDB() error {
	if c.FeatureFlags.UseSQLite {
		c.DB.Driver = DriverSQLite
		c.DB.DSN = c.DB.SQLitePath
		return nil
	}
	return c.DB.ensureDSN()
}

func (c *Config) validate() error {
	var errs error
	if strings.TrimSpace(c.Webhook.Secret) == "" {
		errs = multierr.Append(errs, &MissingSecretError{Env: EnvWebhookSecret})
	}
	errs = multierr.Append(errs, c.validateDB())
	if c.Upstream.URL != "" {
		if _, err := c.Upstream.Parsed(); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if c.Guard.RoleCacheTTL < 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s must be non-negative", EnvRoleCacheTTL))
	}
	return errs
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	// SQLitePath is only used when the UseSQLite flag is on.
	SQLitePath string `envconfig:"STOREFRONT_DB_SQLITE_PATH" default:"storefront.db"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured. Without one the
// role cache is skipped.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type WebhookConfig struct {
	Secret string `envconfig:"WEBHOOK_SECRET"`
	Path   string `envconfig:"STOREFRONT_WEBHOOK_PATH" default:"/api/webhooks/register"`
}

type ClerkConfig struct {
	SecretKey string `envconfig:"CLERK_SECRET_KEY"`
	JWKSURL   string `envconfig:"STOREFRONT_CLERK_JWKS_URL"`
	Issuer    string `envconfig:"STOREFRONT_CLERK_ISSUER"`
	Audience  string `envconfig:"STOREFRONT_CLERK_AUDIENCE"`
	APIURL    string `envconfig:"STOREFRONT_CLERK_API_URL"`
}

type GuardConfig struct {
	RoleCacheTTL time.Duration `envconfig:"STOREFRONT_GUARD_ROLE_CACHE_TTL" default:"60s"`
}

type UpstreamConfig struct {
	URL string `envconfig:"STOREFRONT_UPSTREAM_URL"`
}

// Parsed returns the upstream frontend URL, or nil when none is configured.
func (u UpstreamConfig) Parsed() (*url.URL, error) {
	raw := strings.TrimSpace(u.URL)
	if raw == "" {
		return nil, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvUpstreamURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%s must be an absolute URL", EnvUpstreamURL)
	}
	return parsed, nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
