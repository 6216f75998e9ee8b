package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/flagx"
	"github.com/dmitrijs2005/matchmate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// use timex.Duration so they can be strings like "10s" or nanoseconds.
// Fields left out of the file keep their previous value.
type JsonConfig struct {
	ServerURL      *string         `json:"server_url"`
	Store          *string         `json:"store"`
	DatabaseDSN    *string         `json:"database_dsn"`
	RedisAddr      *string         `json:"redis_addr"`
	RedisPrefix    *string         `json:"redis_prefix"`
	LogLevel       *string         `json:"log_level"`
	LogFormat      *string         `json:"log_format"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	PageSize       *int            `json:"page_size"`
	MetricsAddr    *string         `json:"metrics_addr"`
	SessionSecret  *string         `json:"session_secret"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing happens. It panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	set(&cfg.ServerURL, jc.ServerURL)
	set(&cfg.Store, jc.Store)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.RedisAddr, jc.RedisAddr)
	set(&cfg.RedisPrefix, jc.RedisPrefix)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.LogFormat, jc.LogFormat)
	set(&cfg.PageSize, jc.PageSize)
	set(&cfg.MetricsAddr, jc.MetricsAddr)
	set(&cfg.SessionSecret, jc.SessionSecret)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
