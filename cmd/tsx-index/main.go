package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/voidshard/tileset"
	"github.com/voidshard/tileset/internal/config"
	"github.com/voidshard/tileset/internal/logger"
)

const desc = `Keeps parsed Tiled .tsx tilesets in a sqlite index.

Import parses each file once & stores it under its tileset name (or the file name if
the tileset has none). List prints what the index holds & dump writes a stored
tileset back out as .tsx.`

var cli struct {
	Config string `short:"c" help:"config file (default ~/.config/tileset/config.yaml)"`
	DB     string `short:"d" help:"index database file (default from config)"`
	Debug  bool   `help:"debug logging"`

	Import struct {
		Strict bool     `help:"fail if tilecount doesn't match the atlas image"`
		Files  []string `arg:"" help:".tsx files to import"`
	} `cmd:"" help:"import tilesets"`

	List struct{} `cmd:"" help:"list stored tilesets"`

	Dump struct {
		Name   string `arg:"" help:"tileset name"`
		Output string `arg:"" help:"output .tsx file"`
	} `cmd:"" help:"write a stored tileset as .tsx"`
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("tsx-index"),
		kong.Description(desc),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cli.Debug {
		cfg.Logging.Level = "debug"
	}
	if cli.DB != "" {
		cfg.Index = cli.DB
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync()
	cfg.Loader.Logger = log

	if err := os.MkdirAll(filepath.Dir(cfg.Index), 0755); err != nil {
		log.Fatal("failed to create index dir", zap.String("index", cfg.Index), zap.Error(err))
	}

	idx, err := tileset.OpenIndex(cfg.Index)
	if err != nil {
		log.Fatal("failed to open index", zap.String("index", cfg.Index), zap.Error(err))
	}
	defer idx.Close()

	switch ctx.Command() {
	case "import <files>":
		if cli.Import.Strict {
			cfg.Loader.StrictTileCount = true
		}
		err = importFiles(log, idx, &cfg.Loader, cli.Import.Files)
	case "list":
		err = list(idx)
	case "dump <name> <output>":
		err = dump(log, idx, cli.Dump.Name, cli.Dump.Output)
	default:
		err = fmt.Errorf("unknown command %s", ctx.Command())
	}

	if err != nil {
		log.Error("failed", zap.String("command", ctx.Command()), zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

// importFiles loads & stores each file. A file that fails to parse is
// logged & skipped, the rest are still imported.
func importFiles(log *zap.Logger, idx *tileset.Index, cfg *tileset.Config, files []string) error {
	bar := progressbar.New(len(files))

	failed := 0
	for _, fname := range files {
		bar.Add(1)

		cat, err := tileset.Open(fname, cfg)
		if err != nil {
			log.Warn("skipping tileset", zap.String("file", fname), zap.Error(err))
			failed++
			continue
		}

		name := cat.Tileset().Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(fname), filepath.Ext(fname))
		}

		if err := idx.Put(name, cat); err != nil {
			return fmt.Errorf("storing %s: %w", fname, err)
		}
		log.Debug("imported tileset", zap.String("file", fname), zap.String("name", name))
	}
	bar.Finish()
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to load", failed, len(files))
	}
	return nil
}

// list prints each stored tileset with a short summary
func list(idx *tileset.Index) error {
	names, err := idx.Names()
	if err != nil {
		return err
	}

	for _, name := range names {
		cat, err := idx.Catalog(name)
		if err != nil {
			return err
		}
		ts := cat.Tileset()
		fmt.Printf("%s\t%s\t%d tiles\t%d declared\t%d terrains\n", name, ts.Image.Source, ts.TileCount, len(cat.TileIDs()), len(cat.Terrains()))
	}
	return nil
}

// dump writes a stored tileset back out
func dump(log *zap.Logger, idx *tileset.Index, name, output string) error {
	cat, err := idx.Catalog(name)
	if err != nil {
		return err
	}
	if err := cat.WriteFile(output); err != nil {
		return err
	}
	log.Info("wrote tileset", zap.String("name", name), zap.String("file", output))
	return nil
}
