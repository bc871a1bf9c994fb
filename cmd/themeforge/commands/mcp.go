package commands

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/livetemplate/themeforge/internal/assistant"
	"github.com/livetemplate/themeforge/internal/session"
)

// MCPCommand serves the assistant tools over stdin/stdout. Edits are
// persisted like edits made in the editor.
func MCPCommand(args []string, version string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
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
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.New(ctx, cfg, session.Options{BaseDir: baseDir})
	if err != nil {
		return err
	}
	defer sess.Close()

	a := assistant.New(sess.History(), sess.Presets(), assistant.Options{
		SanitizeText: cfg.Assistant.ShouldSanitizeText(),
		Debug:        cfg.Server.Debug,
	})
	return a.ServeStdio(ctx, version)
}
