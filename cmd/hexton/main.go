// Command hexton edits hexagonal tile maps: bill of materials, format
// normalization, PNG previews, procedural fills, cursor picking, a SQLite
// map library and the HTTP editing API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/talgya/hexton/internal/catalog"
)

const usage = `usage: hexton <command> [flags] [args]

commands:
  bom <map>              print the bill of materials of a map file
  normalize <map>        rewrite a map file in canonical form
  render <map>           write a PNG preview
  generate               fill a new map procedurally
  pick <px> <py>         resolve a viewport pixel to a hex cell
  store <op> [args]      manage the map library (list|save|load|delete)
  serve                  run the HTTP editing API

environment:
  HEXTON_DB          map library path (default data/hexton.db)
  HEXTON_PORT        API port (default 8080)
  HEXTON_ADMIN_KEY   bearer token for POST endpoints
  HEXTON_LOG_LEVEL   debug|info|warn|error (default info)
  HEXTON_LOG_FORMAT  text|json (default text on a terminal, json otherwise)
  CORS_ORIGINS       extra allowed origins, comma separated
`

var errUsage = errors.New("usage")

func main() {
	setupLogging(os.Stderr)

	cat, err := catalog.Default()
	if err != nil {
		slog.Error("failed to load tile catalog", "error", err)
		os.Exit(1)
	}

	if err := run(os.Args[1:], cat, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// run dispatches one subcommand. Output meant for the user goes to stdout;
// diagnostics go through slog.
func run(args []string, cat *catalog.Catalog, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	err := dispatch(args[0], args[1:], cat, stdout)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func dispatch(cmd string, rest []string, cat *catalog.Catalog, stdout io.Writer) error {
	switch cmd {
	case "bom":
		return cmdBOM(rest, cat, stdout)
	case "normalize":
		return cmdNormalize(rest, cat, stdout)
	case "render":
		return cmdRender(rest, cat, stdout)
	case "generate":
		return cmdGenerate(rest, cat, stdout)
	case "pick":
		return cmdPick(rest, stdout)
	case "store":
		return cmdStore(rest, cat, stdout)
	case "serve":
		return cmdServe(rest, cat)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// setupLogging installs the default slog handler: text on a terminal, JSON
// otherwise, overridable with HEXTON_LOG_FORMAT.
func setupLogging(w *os.File) {
	opts := &slog.HandlerOptions{Level: parseLevel(envOrDefault("HEXTON_LOG_LEVEL", "info"))}

	format := envOrDefault("HEXTON_LOG_FORMAT", "")
	if format == "" {
		format = "json"
		if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
			format = "text"
		}
	}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
