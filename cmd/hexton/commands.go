package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hexton/internal/api"
	"github.com/talgya/hexton/internal/catalog"
	"github.com/talgya/hexton/internal/editor"
	"github.com/talgya/hexton/internal/mapio"
	"github.com/talgya/hexton/internal/persistence"
	"github.com/talgya/hexton/internal/preview"
	"github.com/talgya/hexton/internal/scene"
	"github.com/talgya/hexton/internal/world"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parseFlags parses args into fs. Parse failures are usage errors; -h is
// passed through as flag.ErrHelp.
func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", fs.Name(), errUsage, err)
}

// oneArg parses fs and returns its single positional argument.
func oneArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := parseFlags(fs, args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: expected %s: %w", fs.Name(), what, errUsage)
	}
	return fs.Arg(0), nil
}

// writeOutput writes through fn to path, or to stdout when path is empty.
func writeOutput(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdBOM(args []string, cat *catalog.Catalog, stdout io.Writer) error {
	fs := newFlagSet("bom")
	total := fs.Bool("total", false, "append the total tile count")
	path, err := oneArg(fs, args, "a map file")
	if err != nil {
		return err
	}

	m, err := mapio.LoadFile(path, cat)
	if err != nil {
		return err
	}
	entries := mapio.BuildBOM(m, cat)
	if err := mapio.WriteBOM(stdout, entries); err != nil {
		return err
	}
	if *total {
		fmt.Fprintf(stdout, "total\t%s\n", humanize.Comma(int64(mapio.TotalTiles(entries))))
	}
	return nil
}

func cmdNormalize(args []string, cat *catalog.Catalog, stdout io.Writer) error {
	fs := newFlagSet("normalize")
	out := fs.String("o", "", "output file (default stdout; may equal the input)")
	path, err := oneArg(fs, args, "a map file")
	if err != nil {
		return err
	}

	m, err := mapio.LoadFile(path, cat)
	if err != nil {
		return err
	}
	if *out != "" {
		return mapio.SaveFile(*out, m, cat)
	}
	return mapio.Save(stdout, m, cat)
}

func cmdRender(args []string, cat *catalog.Catalog, stdout io.Writer) error {
	fs := newFlagSet("render")
	defaults := preview.DefaultOptions()
	out := fs.String("o", "", "output PNG file (default stdout)")
	cell := fs.Float64("cell", defaults.CellSize, "pixels per board unit")
	margin := fs.Int("margin", defaults.Margin, "margin in pixels")
	labels := fs.Bool("labels", defaults.Labels, "draw tilecodes")
	path, err := oneArg(fs, args, "a map file")
	if err != nil {
		return err
	}

	m, err := mapio.LoadFile(path, cat)
	if err != nil {
		return err
	}
	opts := preview.Options{CellSize: *cell, Margin: *margin, Labels: *labels}
	if err := writeOutput(*out, stdout, func(w io.Writer) error {
		return preview.Render(w, m, cat, opts)
	}); err != nil {
		return err
	}
	slog.Info("preview written", "tiles", m.Len(), "output", *out)
	return nil
}

func cmdGenerate(args []string, cat *catalog.Catalog, stdout io.Writer) error {
	fs := newFlagSet("generate")
	defaults := world.DefaultGenConfig()
	radius := fs.Int("radius", defaults.Radius, "board radius in cells")
	seed := fs.Int64("seed", defaults.Seed, "noise seed")
	out := fs.String("o", "", "output map file (default stdout)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	cfg := defaults
	cfg.Radius = *radius
	cfg.Seed = *seed
	m, err := world.Generate(cfg, cat)
	if err != nil {
		return err
	}
	for category, n := range world.CategoryCounts(m, cat.Name) {
		slog.Debug("category", "code", category, "name", catalog.CategoryName(category), "count", n)
	}
	slog.Info("map generated", "tiles", humanize.Comma(int64(m.Len())), "radius", cfg.Radius, "seed", cfg.Seed)

	if *out != "" {
		return mapio.SaveFile(*out, m, cat)
	}
	return mapio.Save(stdout, m, cat)
}

func cmdPick(args []string, stdout io.Writer) error {
	fs := newFlagSet("pick")
	width := fs.Int("width", api.DefaultViewWidth, "viewport width")
	height := fs.Int("height", api.DefaultViewHeight, "viewport height")
	zoom := fs.Float64("zoom", 0, "wheel delta applied before picking")
	panX := fs.Float64("pan-x", 0, "camera pan along x, board units")
	panY := fs.Float64("pan-y", 0, "camera pan along y, board units")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("pick: expected <px> <py>: %w", errUsage)
	}
	px, err := strconv.ParseFloat(fs.Arg(0), 64)
	if err != nil {
		return fmt.Errorf("pick: px: %w: %v", errUsage, err)
	}
	py, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		return fmt.Errorf("pick: py: %w: %v", errUsage, err)
	}

	cam := scene.NewCamera(*width, *height)
	if *zoom != 0 {
		cam.Zoom(*zoom)
	}
	if *panX != 0 || *panY != 0 {
		cam.Pan(*panX, *panY)
	}
	p := scene.NewPicker(cam, world.NewCoordinateSystem())

	cell, ok := p.HexAt(px, py)
	if !ok {
		fmt.Fprintln(stdout, "no intersection")
		return nil
	}
	state := "valid"
	if !cell.Valid() {
		state = "invalid"
	}
	fmt.Fprintf(stdout, "%s %s\n", cell, state)
	return nil
}

func openLibrary() (*persistence.DB, error) {
	path := envOrDefault("HEXTON_DB", "data/hexton.db")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("database opened", "path", path)
	return db, nil
}

func cmdStore(args []string, cat *catalog.Catalog, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("store: missing operation: %w", errUsage)
	}
	op, rest := args[0], args[1:]

	db, err := openLibrary()
	if err != nil {
		return err
	}
	defer db.Close()

	switch op {
	case "list":
		maps, err := db.ListMaps()
		if err != nil {
			return err
		}
		for _, m := range maps {
			fmt.Fprintf(stdout, "%-20s %8s tiles  saved %-16s %s\n",
				m.Name, humanize.Comma(int64(m.TileCount)), humanize.Time(m.SavedAt()), m.ID)
		}
		return nil

	case "save":
		fs := newFlagSet("store save")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		if fs.NArg() != 2 {
			return fmt.Errorf("store save: expected <name> <map>: %w", errUsage)
		}
		m, err := mapio.LoadFile(fs.Arg(1), cat)
		if err != nil {
			return err
		}
		id, err := db.SaveMap(fs.Arg(0), m, cat)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "stored %s (%s tiles) as %s\n", fs.Arg(0), humanize.Comma(int64(m.Len())), id)
		return db.SaveMeta("last_map", fs.Arg(0))

	case "load":
		fs := newFlagSet("store load")
		out := fs.String("o", "", "output map file (default stdout)")
		name, err := oneArg(fs, rest, "a map name")
		if err != nil {
			return err
		}
		m, err := db.LoadMap(name, cat)
		if err != nil {
			return err
		}
		if *out != "" {
			return mapio.SaveFile(*out, m, cat)
		}
		return mapio.Save(stdout, m, cat)

	case "delete":
		name, err := oneArg(newFlagSet("store delete"), rest, "a map name")
		if err != nil {
			return err
		}
		return db.DeleteMap(name)

	default:
		return fmt.Errorf("store: unknown operation %q: %w", op, errUsage)
	}
}

func cmdServe(args []string, cat *catalog.Catalog) error {
	fs := newFlagSet("serve")
	mapPath := fs.String("map", "", "map file to open (default: last library map)")
	port := fs.Int("port", envIntOrDefault("HEXTON_PORT", 8080), "listen port")
	noDB := fs.Bool("no-db", false, "run without the map library")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	sess := editor.NewSession(cat)
	slog.Info("session started", "id", sess.ID, "tiles", cat.Len(), "codes", len(cat.Codes()))

	var db *persistence.DB
	if !*noDB {
		var err error
		if db, err = openLibrary(); err != nil {
			return err
		}
		defer db.Close()
	}

	switch {
	case *mapPath != "":
		if err := sess.Open(*mapPath); err != nil {
			return err
		}
	case db != nil:
		if name, err := db.GetMeta("last_map"); err == nil {
			m, err := db.LoadMap(name, cat)
			switch {
			case err == nil:
				sess.Replace(m)
				slog.Info("restored last map", "name", name, "tiles", m.Len())
			case errors.Is(err, persistence.ErrMapNotFound):
				slog.Warn("last map no longer in library", "name", name)
			default:
				return err
			}
		}
	}

	srv := api.NewServer(sess)
	srv.DB = db
	srv.Port = *port
	srv.AdminKey = os.Getenv("HEXTON_ADMIN_KEY")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
