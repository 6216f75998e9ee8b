package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "https://api.example.com", "-d", "/tmp/x.db", "-s", "redis", "-r", "localhost:6379",
				"-l", "debug", "-t", "5", "-p", "50", "-m", ":9090"},
			expected: &Config{ServerURL: "https://api.example.com", DatabaseDSN: "/tmp/x.db", Store: "redis", RedisAddr: "localhost:6379",
				LogLevel: "debug", RequestTimeout: 5 * time.Second, PageSize: 50, MetricsAddr: ":9090"},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"cmd", "-config", "x.json", "-env", ".env", "-p", "30"},
			expected: &Config{PageSize: 30},
		},
		{name: "incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
		{name: "incorrect page size", args: []string{"cmd", "-p", "many"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
