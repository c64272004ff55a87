package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/messagely/internal/flagx"
	"github.com/dmitrijs2005/messagely/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so both "30m" and integer nanoseconds are accepted.
type JsonConfig struct {
	DatabaseDSN           string         `json:"database_dsn"`
	BcryptWorkFactor      int            `json:"bcrypt_work_factor"`
	HashConcurrency       int            `json:"hash_concurrency"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	EnrichmentMode        string         `json:"enrichment_mode"`
	LookupConcurrency     int            `json:"lookup_concurrency"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Keys absent from the file keep their current value. An unreadable file or
// invalid JSON panics, like a bad flag does.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.BcryptWorkFactor != 0 {
		config.BcryptWorkFactor = c.BcryptWorkFactor
	}
	if c.HashConcurrency != 0 {
		config.HashConcurrency = c.HashConcurrency
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.EnrichmentMode != "" {
		config.EnrichmentMode = c.EnrichmentMode
	}
	if c.LookupConcurrency != 0 {
		config.LookupConcurrency = c.LookupConcurrency
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
