package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/voidshard/tileset"
	"github.com/voidshard/tileset/internal/config"
	"github.com/voidshard/tileset/internal/logger"
)

const desc = `Prints what a Tiled .tsx tileset declares: the atlas, terrain types and per tile
terrain corners & properties (movement_cost, blocks_vision, ...).

Without --tile every declared tile is listed. Tiles that aren't declared in the file
have no terrain & no properties.`

var cli struct {
	Config string `short:"c" help:"config file (default ~/.config/tileset/config.yaml)"`
	Debug  bool   `help:"debug logging"`
	Strict bool   `help:"fail if tilecount doesn't match the atlas image"`

	// tiles to describe, default all declared tiles
	Tile []int `short:"t" help:"tile id(s) to describe"`

	// write the tileset back out (sorted & normalised)
	Output string `short:"o" help:"re-encode the tileset to this file"`

	Input string `arg:"" help:"input .tsx file"`
}

func main() {
	kong.Parse(
		&cli,
		kong.Name("tsxinfo"),
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
	if cli.Strict {
		cfg.Loader.StrictTileCount = true
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync()
	cfg.Loader.Logger = log

	cat, err := tileset.Open(cli.Input, &cfg.Loader)
	if err != nil {
		log.Fatal("failed to load tileset", zap.String("file", cli.Input), zap.Error(err))
	}

	summarise(os.Stdout, cat)

	ids := cat.TileIDs()
	if len(cli.Tile) > 0 {
		ids = ids[:0]
		for _, id := range cli.Tile {
			if id < 0 {
				log.Fatal("tile ids can't be negative", zap.Int("tile", id))
			}
			ids = append(ids, uint(id))
		}
	}
	for _, id := range ids {
		describe(os.Stdout, cat, id)
	}

	if cli.Output != "" {
		if err := cat.WriteFile(cli.Output); err != nil {
			log.Fatal("failed to write tileset", zap.String("file", cli.Output), zap.Error(err))
		}
		log.Info("wrote tileset", zap.String("file", cli.Output))
	}
}

// summarise prints the atlas & terrain types
func summarise(w io.Writer, cat *tileset.Catalog) {
	ts := cat.Tileset()
	fmt.Fprintf(w, "tileset %q: %s (%dx%d px)\n", ts.Name, ts.Image.Source, ts.Image.Width, ts.Image.Height)
	fmt.Fprintf(w, "tiles %dx%d px, %d columns x %d rows, %d tiles\n", ts.TileWidth, ts.TileHeight, ts.Columns, ts.Rows(), ts.TileCount)

	for i, t := range cat.Terrains() {
		if t.Tile == tileset.NoTile {
			fmt.Fprintf(w, "terrain %d: %s\n", i, t.Name)
		} else {
			fmt.Fprintf(w, "terrain %d: %s (tile %d)\n", i, t.Name, t.Tile)
		}
	}
}

// describe prints one tile as an engine would see it
func describe(w io.Writer, cat tileset.Lookup, id uint) {
	fmt.Fprintf(w, "tile %d:", id)

	if corners, ok := cat.Terrain(id); ok {
		names := make([]string, len(corners))
		for i, c := range corners {
			if c == tileset.NoTerrain {
				names[i] = "-"
				continue
			}
			name, err := cat.TerrainName(c)
			if err != nil {
				name = fmt.Sprintf("?%d", c)
			}
			names[i] = name
		}
		fmt.Fprintf(w, " terrain=%v", names)
	}

	if cost, ok := cat.MovementCost(id); ok {
		if cost == tileset.Impassable {
			fmt.Fprint(w, " impassable")
		} else {
			fmt.Fprintf(w, " movement_cost=%d", cost)
		}
	}
	if cat.BlocksVision(id) {
		fmt.Fprint(w, " blocks_vision")
	}

	if c, ok := cat.(*tileset.Catalog); ok {
		if props := c.Properties(id); props != nil {
			keys := props.Keys()
			sort.Strings(keys)
			for _, k := range keys {
				if k == tileset.KeyMovementCost || k == tileset.KeyBlocksVision {
					continue
				}
				v, _ := props.Get(k)
				fmt.Fprintf(w, " %s=%s", k, v)
			}
		}
	}

	fmt.Fprintln(w)
}
