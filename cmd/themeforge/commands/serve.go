package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/livetemplate/themeforge/internal/server"
	"github.com/livetemplate/themeforge/internal/session"
)

// ServeCommand implements the serve command.
func ServeCommand(args []string, version string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	port := fs.Int("port", 0, "Port to listen on (default from config, 8080)")
	fs.IntVar(port, "p", 0, "Shorthand for --port")
	host := fs.String("host", "", "Host to bind (default from config, localhost)")
	noWatch := fs.Bool("no-watch", false, "Do not reload presets when their files change")
	assistantOn := fs.Bool("assistant", false, "Enable the MCP endpoint")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	cfg, baseDir, err := loadConfig(firstOr(positional, "."), common)
	if err != nil {
		return err
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *noWatch {
		cfg.Presets.Watch = false
	}
	if *assistantOn {
		cfg.Assistant.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.New(ctx, cfg, session.Options{BaseDir: baseDir})
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := server.New(sess, version)
	defer srv.Close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("🎨 %s\n\n", cfg.Title)
	fmt.Printf("Directory: %s\n", baseDir)
	fmt.Printf("Store:     %s\n", sess.Store().Backend().Name())
	fmt.Printf("Presets:   %d\n", len(sess.Presets().List()))
	fmt.Printf("\n🌐 Editor running at http://%s\n", addr)
	if cfg.API.IsAuthEnabled() {
		fmt.Printf("🔒 API key required for changes via /api\n")
	}
	if cfg.Assistant.Enabled {
		fmt.Printf("🤖 Assistant endpoint at http://%s%s\n", addr, cfg.Assistant.GetPath())
	}
	fmt.Printf("Press Ctrl+C to stop\n\n")

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
