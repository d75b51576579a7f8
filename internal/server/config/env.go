package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvHTTPAddr        = "RXAUTH_HTTP_ADDR"
	EnvGRPCAddr        = "RXAUTH_GRPC_ADDR"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvStorage         = "RXAUTH_STORAGE"
	EnvSessionSecret   = "SESSION_SECRET"
	EnvSessionLifetime = "RXAUTH_SESSION_LIFETIME"
	EnvCookieName      = "RXAUTH_COOKIE_NAME"
	EnvCookieSecure    = "RXAUTH_COOKIE_SECURE"
	EnvPasswordHash    = "RXAUTH_PASSWORD_HASH"
	EnvBcryptCost      = "RXAUTH_BCRYPT_COST"
	EnvAppEnv          = "APP_ENV"
	EnvDebug           = "RXAUTH_DEBUG"
)

// loadDotEnv exports the variables of path into the process environment.
// Variables already set win over the file. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseEnv overlays config with environment variables read through lookup.
// APP_ENV=development switches debug logging on unless RXAUTH_DEBUG says
// otherwise.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvHTTPAddr, &config.EndpointAddrHTTP)
	str(EnvGRPCAddr, &config.EndpointAddrGRPC)
	str(EnvDatabaseURL, &config.DatabaseDSN)
	str(EnvStorage, &config.Storage)
	str(EnvSessionSecret, &config.SecretKey)
	str(EnvCookieName, &config.CookieName)
	str(EnvPasswordHash, &config.PasswordHashAlgorithm)
	str(EnvAppEnv, &config.Environment)

	if v, ok := lookup(EnvSessionLifetime); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSessionLifetime, err)
		}
		config.SessionLifetime = d
	}

	if v, ok := lookup(EnvCookieSecure); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCookieSecure, err)
		}
		config.CookieSecure = b
	}

	if v, ok := lookup(EnvBcryptCost); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBcryptCost, err)
		}
		config.BcryptCost = n
	}

	if config.Environment == EnvironmentDevelopment {
		config.Debug = true
	}
	if v, ok := lookup(EnvDebug); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		config.Debug = b
	}

	return nil
}
