package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/rxauth/internal/flagx"
	"github.com/dmitrijs2005/rxauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from zero values so that a partial file only
// overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP      *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           *string         `json:"database_dsn"`
	Storage               *string         `json:"storage"`
	SecretKey             *string         `json:"secret_key"`
	SessionLifetime       *timex.Duration `json:"session_lifetime"`
	CookieName            *string         `json:"cookie_name"`
	CookieSecure          *bool           `json:"cookie_secure"`
	PasswordHashAlgorithm *string         `json:"password_hash_algorithm"`
	BcryptCost            *int            `json:"bcrypt_cost"`
	Environment           *string         `json:"environment"`
	Debug                 *bool           `json:"debug"`
}

// parseJson overlays config with the file named by -c / -config in args.
// Without either flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.Storage, c.Storage)
	setIf(&config.SecretKey, c.SecretKey)
	if c.SessionLifetime != nil {
		config.SessionLifetime = c.SessionLifetime.Duration
	}
	setIf(&config.CookieName, c.CookieName)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	setIf(&config.BcryptCost, c.BcryptCost)
	setIf(&config.Environment, c.Environment)
	setIf(&config.Debug, c.Debug)

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
