// ABOUTME: Entry point for the coven-account server and operator CLI
// ABOUTME: Dispatches serve, init, admin, session, audit and health sub-commands

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/coven-account/internal/config"
	"github.com/2389/coven-account/internal/gateway"
	"github.com/2389/coven-account/internal/telemetry"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                                                  _
  ___ _____   _____ _ __         __ _  ___ ___ ___  _   _ _ __ | |_
 / __/ _ \ \ / / _ \ '_ \ _____ / _' |/ __/ __/ _ \| | | | '_ \| __|
| (_| (_) \ V /  __/ | | |_____| (_| | (_| (_| (_) | |_| | | | | |_
 \___\___/ \_/ \___|_| |_|      \__,_|\___\___\___/ \__,_|_| |_|\__|
`

func printUsage() {
	fmt.Println("Usage: coven-account <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                                 Start the account server")
	fmt.Println("  init                                  Create a new config file interactively")
	fmt.Println("  bootstrap-admin --username U          Create an admin user and print its token")
	fmt.Println("  issue-session --username U            Issue a user session token for an account")
	fmt.Println("  revoke-token --token T                Revoke an admin or user session token")
	fmt.Println("  audit [--limit N]                     Show store totals and recent audit log entries")
	fmt.Println("  health                                Check server health")
	fmt.Println()
	fmt.Println("Every command accepts --config PATH (default: $COVEN_ACCOUNT_CONFIG or ~/.config/coven/account.yaml).")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, args)
	case "init":
		err = runInit(args)
	case "bootstrap-admin":
		err = runBootstrapAdmin(ctx, args)
	case "issue-session":
		err = runIssueSession(ctx, args)
	case "revoke-token":
		err = runRevokeToken(ctx, args)
	case "audit":
		err = runAudit(ctx, args)
	case "health":
		err = runHealth(ctx, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet returns a flag set for a sub-command with the shared --config flag.
func newFlagSet(name string, configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("coven-account "+name, pflag.ContinueOnError)
	fs.StringVarP(configPath, "config", "c", config.DefaultPath(), "path to the config file (.yaml or .toml)")
	return fs
}

func runServe(ctx context.Context, args []string) error {
	var configPath string
	fs := newFlagSet("serve", &configPath)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	// Component loggers derive from the default logger.
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Base URL:  %s\n", cfg.Server.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Sessions:  %s", cfg.Sessions.Backend)
	if cfg.Sessions.Backend == config.BackendRedis {
		gray.Printf(" (%s)", cfg.Sessions.Redis.Addr)
	}
	fmt.Println()
	if cfg.Auth.JWTSecret != "" {
		green.Print("    ▶ ")
		fmt.Println("Admin JWT: enabled")
	}
	green.Print("    ▶ ")
	fmt.Printf("Tracing:   %s\n", cfg.Tracing.Exporter)
	fmt.Println()

	// Installed before the gateway so its tracers come from this provider.
	shutdownTracing, err := telemetry.Install(cfg.Tracing, version, os.Stderr)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	logger.Info("starting coven-account",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"session_backend", cfg.Sessions.Backend,
		"trace_exporter", cfg.Tracing.Exporter,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func runHealth(ctx context.Context, args []string) error {
	var configPath string
	fs := newFlagSet("health", &configPath)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
