package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for TTLs and the
// bcrypt cost, a duration for the cache TTL.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	AccessSecret   string        // secret used to sign access tokens
	RefreshSecret  string        // secret used to sign refresh tokens
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptCost     int           // bcrypt cost for password hashing
	UserCacheTTL   time.Duration // lifetime of cached user-by-id lookups
}

// Load reads configuration values from environment variables. Every value
// has a fallback so the service starts out of the box in development. The
// defaults are NOT suitable for production; at minimum the two JWT secrets
// must be overridden there.
func Load() Config {
	return Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("APP_PORT", "3000"),
		DBUser:         getenv("DB_USER", "root"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "3306"),
		DBName:         getenv("DB_NAME", "trexpress"),
		AccessSecret:   getenv("JWT_ACCESS_SECRET", "SecretAccessToken"),
		RefreshSecret:  getenv("JWT_REFRESH_SECRET", "SecretRefreshToken"),
		AccessTTLMin:   getint("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: getint("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     getint("BCRYPT_COST", 10),
		UserCacheTTL:   getdur("USER_CACHE_TTL", 30*time.Second),
	}
}

// AccessTTL returns the access token lifetime as a duration.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// RefreshTTL returns the refresh token lifetime as a duration.
func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func getdur(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
