package config

import (
	"context"

	"github.com/dmitrijs2005/matchmate/internal/flagx"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// EnvPrefix prefixes every environment variable read by the loader.
const EnvPrefix = "MATCHMATE_"

// parseEnv overlays Config with MATCHMATE_* environment variables. A .env
// file named with -env is loaded first; variables already set in the
// environment win over the file.
func parseEnv(cfg *Config) {
	if path := flagx.EnvFileFlag(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	}
	processEnv(cfg, envconfig.OsLookuper())
}

func processEnv(cfg *Config, l envconfig.Lookuper) {
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	})
	if err != nil {
		panic(err)
	}
}
