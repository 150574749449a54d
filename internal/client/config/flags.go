package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/notex/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the notes service
//	-i int      online check interval in seconds
//	-d string   path of the local cache database
//	-l string   log level
//
// args is filtered with flagx.FilterArgs first so flags owned by other
// components do not break parsing.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-l"})

	fs := flag.NewFlagSet("notex", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the notes service")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.CachePath, "d", cfg.CachePath, "local cache database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
