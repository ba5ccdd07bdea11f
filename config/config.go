package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

const minSessionSecretLength = 32

type Config struct {
	HTTPHost  string
	HTTPPort  string
	MySQLDSN  string
	Log       LogConfig
	Session   SessionConfig
	Password  PasswordConfig
	RateLimit RateLimitConfig
	Workspace WorkspaceConfig
	Support   SupportConfig
	RootKeys  RootKeyConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type SessionConfig struct {
	Secret       string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

type PasswordConfig struct {
	Policy PasswordPolicy
}

type RateLimitConfig struct {
	RedisAddr string
	Limit     int
	Window    time.Duration
}

type WorkspaceConfig struct {
	CacheTTL time.Duration
}

type SupportConfig struct {
	URL   string
	Token string
	Email string
}

// RootKeyConfig names the platform workspace and key space that hold root keys.
type RootKeyConfig struct {
	WorkspaceID string
	KeyAuthID   string
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, errors.New("SESSION_SECRET environment variable is required")
	}
	if len(sessionSecret) < minSessionSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes long", minSessionSecretLength)
	}

	return &Config{
		HTTPHost: getEnv("HTTP_HOST", ""),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		MySQLDSN: mysqlDSN,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Session: SessionConfig{
			Secret:       sessionSecret,
			AccessTTL:    getDurationEnv("SESSION_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:   getDurationEnv("SESSION_REFRESH_TTL", 7*24*time.Hour),
			CookieName:   getEnv("SESSION_COOKIE_NAME", "console-session"),
			CookieDomain: getEnv("SESSION_COOKIE_DOMAIN", ""),
			CookieSecure: getBoolEnv("SESSION_COOKIE_SECURE", true),
		},
		Password: PasswordConfig{
			Policy: loadPasswordPolicy(),
		},
		RateLimit: RateLimitConfig{
			RedisAddr: getEnv("REDIS_ADDR", ""),
			Limit:     getIntEnv("RATELIMIT_LIMIT", 25),
			Window:    getSecondsEnv("RATELIMIT_WINDOW", 10*time.Second),
		},
		Workspace: WorkspaceConfig{
			CacheTTL: getSecondsEnv("WORKSPACE_CACHE_TTL", time.Minute),
		},
		Support: SupportConfig{
			URL:   getEnv("SUPPORT_URL", ""),
			Token: getEnv("SUPPORT_TOKEN", ""),
			Email: getEnv("SUPPORT_EMAIL", "support@example.com"),
		},
		RootKeys: RootKeyConfig{
			WorkspaceID: getEnv("ROOT_KEY_WORKSPACE_ID", "ws_console"),
			KeyAuthID:   getEnv("ROOT_KEY_KEY_AUTH_ID", "ks_console_root"),
		},
	}, nil
}

func (c *Config) DSN() string {
	return c.MySQLDSN
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a number of minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", false),
	}
}
