// Package commands implements the themeforge subcommands.
package commands

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/livetemplate/themeforge/internal/config"
	"github.com/livetemplate/themeforge/internal/store"
)

func init() {
	log.SetFlags(0) // Remove timestamp from logs
}

// commonFlags are accepted by every command that opens the session.
type commonFlags struct {
	configPath string
	store      string
	debug      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Config file (default: <directory>/themeforge.yaml)")
	fs.StringVar(&c.configPath, "c", "", "Shorthand for --config")
	fs.StringVar(&c.store, "store", "", "Override the store type: file, memory, sqlite, postgres, redis, s3")
	fs.BoolVar(&c.debug, "debug", false, "Verbose logging")
}

// parseArgs parses flags that may appear before or after positional
// arguments and returns the positionals.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// loadConfig resolves the working directory and loads its configuration.
// CLI flags override the loaded values.
func loadConfig(dir string, flags commonFlags) (*config.Config, string, error) {
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, "", fmt.Errorf("directory does not exist: %s", dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cfg *config.Config
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
	} else {
		cfg, err = config.LoadFromDir(absDir)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	if flags.store != "" {
		cfg.Store.Type = flags.store
	}
	if flags.debug {
		cfg.Server.Debug = true
	}
	return cfg, absDir, nil
}

// openAdapter opens the configured store without starting a session.
func openAdapter(ctx context.Context, cfg *config.Config, baseDir string) (*store.Adapter, error) {
	backend, err := store.Open(ctx, cfg.Store, baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store.NewAdapter(backend, cfg.Store.GetKey(), cfg.Server.Debug), nil
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
