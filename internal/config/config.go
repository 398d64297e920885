package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const minSecretLength = 32

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Admin token signing
	JWTSecret             string `env:"JWT_SECRET,required"`
	JWTIssuer             string `env:"JWT_ISSUER" envDefault:"mythologia-admin"`
	JWTAudience           string `env:"JWT_AUDIENCE" envDefault:"mythologia-api"`
	AccessTokenTTLSeconds int    `env:"ACCESS_TOKEN_TTL_SECONDS" envDefault:"900"`
	RefreshTokenTTLDays   int    `env:"REFRESH_TOKEN_TTL_DAYS" envDefault:"7"`
	BcryptCost            int    `env:"BCRYPT_COST" envDefault:"12"`

	// Inter-service request signing
	ServiceHMACSecret    string   `env:"SERVICE_HMAC_SECRET,required"`
	ServiceAPIKeys       []string `env:"SERVICE_API_KEYS,required" envSeparator:","`
	HMACToleranceSeconds int      `env:"HMAC_TOLERANCE_SECONDS" envDefault:"300"`

	// Rate limiting
	LoginWindowMinutes   int `env:"LOGIN_RATE_WINDOW_MINUTES" envDefault:"15"`
	LoginMaxAttempts     int `env:"LOGIN_RATE_MAX_ATTEMPTS" envDefault:"5"`
	RefreshWindowMinutes int `env:"REFRESH_RATE_WINDOW_MINUTES" envDefault:"5"`
	RefreshMaxAttempts   int `env:"REFRESH_RATE_MAX_ATTEMPTS" envDefault:"10"`
	APIWindowSeconds     int `env:"API_RATE_WINDOW_SECONDS" envDefault:"60"`
	APIMaxRequests       int `env:"API_RATE_MAX_REQUESTS" envDefault:"30"`

	// Retention
	ActivityRetentionDays int `env:"ACTIVITY_RETENTION_DAYS" envDefault:"90"`

	// Optional bootstrap admin, applied only when the admins table is empty
	SeedAdminUsername     string `env:"SEED_ADMIN_USERNAME"`
	SeedAdminEmail        string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPasswordHash string `env:"SEED_ADMIN_PASSWORD_HASH"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSeconds) * time.Second
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func (c *Config) HMACTolerance() time.Duration {
	return time.Duration(c.HMACToleranceSeconds) * time.Second
}

func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowMinutes) * time.Minute
}

func (c *Config) RefreshWindow() time.Duration {
	return time.Duration(c.RefreshWindowMinutes) * time.Minute
}

func (c *Config) APIWindow() time.Duration {
	return time.Duration(c.APIWindowSeconds) * time.Second
}

func (c *Config) ActivityRetention() time.Duration {
	return time.Duration(c.ActivityRetentionDays) * 24 * time.Hour
}

// APIKeys parses SERVICE_API_KEYS ("name:key,name:key") into a key->service map.
// The map is keyed by the key value because that is what requests carry.
func (c *Config) APIKeys() (map[string]string, error) {
	keys := make(map[string]string, len(c.ServiceAPIKeys))
	for _, entry := range c.ServiceAPIKeys {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, key, ok := strings.Cut(entry, ":")
		if !ok || name == "" || key == "" {
			return nil, fmt.Errorf("SERVICE_API_KEYS entry %q must be in name:key form", entry)
		}
		if _, dup := keys[key]; dup {
			return nil, fmt.Errorf("SERVICE_API_KEYS contains a duplicate key value")
		}
		keys[key] = name
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("SERVICE_API_KEYS must contain at least one name:key entry")
	}
	return keys, nil
}

// Validate enforces the startup contract: a misconfigured process must refuse
// to serve traffic rather than fail per-request.
func (c *Config) Validate() error {
	if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
		return err
	}
	if err := validateSecret("SERVICE_HMAC_SECRET", c.ServiceHMACSecret); err != nil {
		return err
	}
	if c.JWTSecret == c.ServiceHMACSecret {
		return fmt.Errorf("JWT_SECRET and SERVICE_HMAC_SECRET must be distinct secrets")
	}
	if _, err := c.APIKeys(); err != nil {
		return err
	}
	if c.AccessTokenTTLSeconds <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_SECONDS must be positive")
	}
	if c.RefreshTokenTTLDays <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL_DAYS must be positive")
	}
	if c.BcryptCost < 12 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 12 and 31")
	}
	if c.HMACToleranceSeconds <= 0 {
		return fmt.Errorf("HMAC_TOLERANCE_SECONDS must be positive")
	}
	if c.LoginMaxAttempts <= 0 || c.RefreshMaxAttempts <= 0 || c.APIMaxRequests <= 0 {
		return fmt.Errorf("rate limit attempt thresholds must be positive")
	}
	if c.SeedAdminPasswordHash != "" && !isBcryptHash(c.SeedAdminPasswordHash) {
		return fmt.Errorf("SEED_ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
	}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}

func validateSecret(name, value string) error {
	if len(value) < minSecretLength {
		return fmt.Errorf("%s must be at least %d bytes (generate with: openssl rand -base64 32)", name, minSecretLength)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
