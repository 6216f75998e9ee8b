package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/matchmate/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend base URL
//	-d string   SQLite database path
//	-s string   state store: sqlite, redis or memory
//	-r string   Redis address host:port
//	-l string   log level
//	-t int      request timeout in seconds
//	-p int      search page size
//	-m string   address to serve Prometheus metrics on
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-r", "-l", "-t", "-p", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend base URL")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "path to the local state database")
	fs.StringVar(&cfg.Store, "s", cfg.Store, "state store (sqlite, redis, memory)")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "search page size")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address to serve metrics on")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
