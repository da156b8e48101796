package sessions

import (
	"os"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the immutable configuration assembled once at startup and
// passed down. Nothing in the package reads the environment after load.
type Config struct {
	Auth  AuthConfig  `yaml:"auth"`
	Redis RedisConfig `yaml:"redis"`
	Mail  MailConfig  `yaml:"mail"`
	Sweep SweepConfig `yaml:"sweep"`
}

// AuthConfig carries the token secrets and lifetimes. Access and refresh
// credentials use different secrets so one can never stand in for the other.
type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret" env:"SESSIONS_ACCESS_SECRET"`
	RefreshSecret string        `yaml:"refresh_secret" env:"SESSIONS_REFRESH_SECRET"`
	AccessTTL     time.Duration `yaml:"access_ttl" env:"SESSIONS_ACCESS_TTL" env-default:"15m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env:"SESSIONS_REFRESH_TTL" env-default:"168h"`
	Issuer        string        `yaml:"issuer" env:"SESSIONS_ISSUER" env-default:"go-sessions"`
	Audience      []string      `yaml:"audience" env:"SESSIONS_AUDIENCE"`
	// TokenLookup follows the "<source>:<name>" syntax, e.g.
	// "cookie:access_token" or "header:Authorization".
	TokenLookup string `yaml:"token_lookup" env:"SESSIONS_TOKEN_LOOKUP" env-default:"cookie:access_token"`
	AuthScheme  string `yaml:"auth_scheme" env:"SESSIONS_AUTH_SCHEME" env-default:"Bearer"`
	ContextKey  string `yaml:"context_key" env:"SESSIONS_CONTEXT_KEY" env-default:"account"`
	// VerificationTTL bounds the single use reset/verify tokens, anchored
	// on their creation timestamp.
	VerificationTTL time.Duration `yaml:"verification_ttl" env:"SESSIONS_VERIFICATION_TTL" env-default:"24h"`
}

// RedisConfig locates the credential store.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"SESSIONS_REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"SESSIONS_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"SESSIONS_REDIS_DB" env-default:"0"`
}

// MailConfig carries SMTP settings and the link bases for the reset and
// verification notifications.
type MailConfig struct {
	Host      string `yaml:"host" env:"SESSIONS_MAIL_HOST"`
	Port      int    `yaml:"port" env:"SESSIONS_MAIL_PORT" env-default:"587"`
	Username  string `yaml:"username" env:"SESSIONS_MAIL_USERNAME"`
	Password  string `yaml:"password" env:"SESSIONS_MAIL_PASSWORD"`
	From      string `yaml:"from" env:"SESSIONS_MAIL_FROM"`
	ResetURL  string `yaml:"reset_url" env:"SESSIONS_MAIL_RESET_URL"`
	VerifyURL string `yaml:"verify_url" env:"SESSIONS_MAIL_VERIFY_URL"`
}

// SweepConfig drives the stale account sweep.
type SweepConfig struct {
	// Schedule is a standard five field cron expression; the default fires
	// daily at 03:00.
	Schedule string `yaml:"schedule" env:"SESSIONS_SWEEP_SCHEDULE" env-default:"0 3 * * *"`
	// StaleAfter is how long an unverified account may linger before the
	// sweep removes it.
	StaleAfter time.Duration `yaml:"stale_after" env:"SESSIONS_SWEEP_STALE_AFTER" env-default:"720h"`
}

// LoadConfig reads the config file when path is non empty, then overlays
// environment variables.
func LoadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "config file not found")
		}
		if err := cleanenv.ReadConfig(path, &config); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to load config")
		}
	} else {
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read config from environment")
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// MustLoadConfig is LoadConfig that panics on failure, for main wiring.
func MustLoadConfig(path string) *Config {
	config, err := LoadConfig(path)
	if err != nil {
		panic(err)
	}
	return config
}

// Validate enforces the invariants the token issuer depends on.
func (c *Config) Validate() error {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return ErrMissingSigningKey
	}

	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return errors.New("access and refresh secrets must differ", errors.CategoryBadInput)
	}

	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive", errors.CategoryBadInput)
	}

	if c.Auth.AccessTTL >= c.Auth.RefreshTTL {
		return errors.New("access credential must be shorter lived than the refresh credential", errors.CategoryBadInput)
	}

	return nil
}
