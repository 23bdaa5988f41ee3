package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/m0smith/genia-12-2024/config"
	"github.com/m0smith/genia-12-2024/server"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point, separated from main for tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("genia-serve", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath  = flags.String("config", "", "Path to config file")
		script      = flags.String("script", "", "Override serve.script")
		port        = flags.Int("port", 0, "Override listen port")
		watch       = flags.Bool("watch", false, "Reload the script when it changes")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}

	if *showVersion {
		fmt.Fprintf(stdout, "genia-serve version %s\n", Version)
		return nil
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, configFile, err := config.LoadWithPath(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if *script != "" {
		cfg.Serve.Script = *script
	}
	if *port != 0 {
		cfg.Serve.Port = *port
	}
	if *watch {
		cfg.Serve.Watch = true
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	for _, w := range config.Warnings(cfg) {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}

	srv, err := server.New(cfg, configFile, stdout, stderr)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return srv.Run(ctx)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `genia-serve - serve a Genia script over HTTP

Usage:
  genia-serve [options]

Each POST to / calls the script's handler function (serve.handler,
default handle_request) with the request body as text.

Options:
  --config PATH    Path to config file (default: auto-detect)
  --script PATH    Script to serve (overrides serve.script)
  --port PORT      Override listen port
  --watch          Reload the script when it changes
  --version        Show version
  --help           Show this help

Config Resolution:
  1. --config flag
  2. GENIA_CONFIG environment variable
  3. ./genia.yaml
  4. ~/.config/genia/genia.yaml

Examples:
  genia-serve --script app.genia
  genia-serve --config genia.yaml --port 3000 --watch

`)
}
