package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/messagely/internal/flagx"
)

// ValueFlags lists every flag that takes a value, including the JSON config
// flags, so the CLI can tell command words apart from flag values.
var ValueFlags = []string{"-c", "-config", "-d", "-w", "-n", "-s", "-t", "-e", "-j", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-w int      bcrypt work factor
//	-n int      concurrent password hashes
//	-s string   JWT HMAC secret key
//	-t int      login token validity, minutes (applied only when given)
//	-e string   message enrichment mode (join|lookup)
//	-j int      concurrent counterpart lookups
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs first, so CLI command words and
// the JSON config flags do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-w", "-n", "-s", "-t", "-e", "-j", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.IntVar(&config.BcryptWorkFactor, "w", config.BcryptWorkFactor, "bcrypt work factor")
	fs.IntVar(&config.HashConcurrency, "n", config.HashConcurrency, "concurrent password hashes")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.EnrichmentMode, "e", config.EnrichmentMode, "message enrichment mode (join|lookup)")
	fs.IntVar(&config.LookupConcurrency, "j", config.LookupConcurrency, "concurrent counterpart lookups")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -t has minute resolution; a JSON duration is kept unless -t was given.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
}
