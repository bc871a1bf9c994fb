package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/livetemplate/themeforge/internal/export"
)

// ExportCommand implements the export command.
func ExportCommand(args []string) error {
	return runExport(args, os.Stdout)
}

func runExport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	out := fs.String("o", "", "Output file (default: stdout)")
	title := fs.String("title", "", "Title used in exported documents")
	noMinify := fs.Bool("no-minify", false, "Do not minify CSS and HTML")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return fmt.Errorf("usage: themeforge export <format> [directory]")
	}
	format, err := export.ParseFormat(positional[0])
	if err != nil {
		return err
	}
	cfg, baseDir, err := loadConfig(firstOr(positional[1:], "."), common)
	if err != nil {
		return err
	}
	if *title != "" {
		cfg.Title = *title
	}
	if *noMinify {
		cfg.Export.Minify = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Export.GetTimeout()+10*time.Second)
	defer cancel()

	adapter, err := openAdapter(ctx, cfg, baseDir)
	if err != nil {
		return err
	}
	defer adapter.Close()

	exporter := export.New(export.Options{
		Title:      cfg.Title,
		Minify:     cfg.Export.Minify,
		ChromePath: cfg.Export.ChromePath,
		Timeout:    cfg.Export.GetTimeout(),
	})
	res, err := exporter.Export(ctx, adapter.LoadOrDefault(ctx), format)
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = stdout.Write(res.Data)
		return err
	}
	if err := os.WriteFile(*out, res.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s (%d bytes)\n", *out, len(res.Data))
	return nil
}
