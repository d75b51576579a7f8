package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/rxauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-m string   storage driver: postgres | memory
//	-t int      session lifetime, minutes
//	-debug      verbose diagnostics of auth failures
//
// args is filtered with flagx.FilterArgs first, so flags owned by other
// components (e.g. -c) do not cause parse errors.
//
// The signing secret has no flag: command lines show up in ps and shell
// history. It comes from SESSION_SECRET or the JSON file.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"a", "g", "d", "m", "t"}, []string{"debug"})

	fs := flag.NewFlagSet("rxauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage driver (postgres|memory)")
	sessionLifetime := fs.Int("t", int(config.SessionLifetime.Minutes()), "session lifetime (in minutes)")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "verbose diagnostics of auth failures")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.SessionLifetime = time.Duration(*sessionLifetime) * time.Minute
		}
	})
	return nil
}
