package commands

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ShowCommand prints the saved document, or the defaults when nothing is
// saved.
func ShowCommand(args []string) error {
	return runShow(args, os.Stdout)
}

func runShow(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	asYAML := fs.Bool("yaml", false, "Print YAML instead of JSON")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	cfg, baseDir, err := loadConfig(firstOr(positional, "."), common)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.GetTimeout())
	defer cancel()
	adapter, err := openAdapter(ctx, cfg, baseDir)
	if err != nil {
		return err
	}
	defer adapter.Close()

	doc := adapter.LoadOrDefault(ctx)
	if *asYAML {
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ResetCommand deletes the saved document so the next session starts from
// the defaults.
func ResetCommand(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	cfg, baseDir, err := loadConfig(firstOr(positional, "."), common)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.GetTimeout())
	defer cancel()
	adapter, err := openAdapter(ctx, cfg, baseDir)
	if err != nil {
		return err
	}
	defer adapter.Close()

	if err := adapter.Clear(ctx); err != nil {
		return err
	}
	fmt.Printf("✓ Cleared saved document from %s store\n", adapter.Backend().Name())
	return nil
}
