package tileset

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqlUpsertTileset = `INSERT INTO tilesets (name, data) VALUES (:name, :data) ON CONFLICT (name) DO UPDATE SET data=EXCLUDED.data;`
	sqlDeleteTiles   = `DELETE FROM tiles WHERE tileset=?;`
	sqlInsertTiles   = `INSERT INTO tiles (id, tileset, tile, terrain, props) VALUES (:id, :tileset, :tile, :terrain, :props);`
	sqlGetTileset    = `SELECT name, data FROM tilesets WHERE name=? LIMIT 1;`
	sqlGetTiles      = `SELECT id, tileset, tile, terrain, props FROM tiles WHERE tileset=? ORDER BY tile;`
)

// OpenIndex given it's filename (database file) on disk.
// Will create if it doesn't exist.
func OpenIndex(fname string) (*Index, error) {
	db, err := sqlx.Open("sqlite3", fname)
	if err != nil {
		return nil, err
	}

	idx := &Index{db: db, filename: fname}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Index holds any number of parsed tilesets in a sqlite file, so tools can
// import .tsx files once & get catalogs back without re-reading the XML.
type Index struct {
	filename string
	db       *sqlx.DB
}

// Filename returns the path to the index data on disk
func (i *Index) Filename() string {
	return i.filename
}

// Close the underlying database
func (i *Index) Close() error {
	return i.db.Close()
}

// Names returns the name of every stored tileset, sorted
func (i *Index) Names() ([]string, error) {
	names := []string{}
	err := i.db.Select(&names, "SELECT name FROM tilesets ORDER BY name;")
	return names, err
}

// Put stores the catalog under `name`, replacing anything already there.
func (i *Index) Put(name string, c *Catalog) error {
	meta, err := newDBTileset(name, c)
	if err != nil {
		return err
	}

	tiles := make([]dbTile, 0, len(c.tiles))
	for _, id := range c.TileIDs() {
		t, err := newDBTile(name, id, c.tiles[id])
		if err != nil {
			return err
		}
		tiles = append(tiles, t)
	}

	txn, err := i.db.Beginx()
	if err != nil {
		return err
	}

	if _, err = txn.NamedExec(sqlUpsertTileset, meta); err != nil {
		txn.Rollback()
		return err
	}

	if _, err = txn.Exec(sqlDeleteTiles, name); err != nil {
		txn.Rollback()
		return err
	}

	// sqlx refuses a batch insert of nothing
	if len(tiles) > 0 {
		if _, err = txn.NamedExec(sqlInsertTiles, tiles); err != nil {
			txn.Rollback()
			return err
		}
	}

	return txn.Commit()
}

// Catalog rebuilds the catalog stored under `name`.
// Unknown names are a *LookupError.
func (i *Index) Catalog(name string) (*Catalog, error) {
	return i.catalog(i.db, name)
}

// catalog reads a catalog with either a DB or a transaction
func (i *Index) catalog(q sqlx.Queryer, name string) (*Catalog, error) {
	row := dbTileset{}
	err := sqlx.Get(q, &row, sqlGetTileset, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &LookupError{What: "tileset", Key: name, Limit: -1}
	} else if err != nil {
		return nil, err
	}

	blob := dbTilesetData{}
	if err := json.Unmarshal([]byte(row.Data), &blob); err != nil {
		return nil, fmt.Errorf("tileset %s: %w", name, err)
	}

	c := &Catalog{
		meta:     blob.Meta,
		props:    blob.Props.properties(),
		terrains: blob.Terrains,
		tiles:    map[uint]*record{},
	}
	if c.terrains == nil {
		c.terrains = []TerrainType{}
	}

	tiles := []dbTile{}
	if err := sqlx.Select(q, &tiles, sqlGetTiles, name); err != nil {
		return nil, err
	}

	for _, t := range tiles {
		rec := &record{}
		if t.Terrain != "" {
			rec.terrain, err = decodeTerrain(t.Terrain)
			if err != nil {
				return nil, fmt.Errorf("tileset %s tile %d: %w", name, t.Tile, err)
			}
			rec.hasTerrain = true
		}

		pblock := dbProps{}
		if err := json.Unmarshal([]byte(t.Props), &pblock); err != nil {
			return nil, fmt.Errorf("tileset %s tile %d: %w", name, t.Tile, err)
		}
		rec.props = pblock.properties()

		c.tiles[uint(t.Tile)] = rec
	}

	return c, nil
}

// init creates some DB tables for us if they don't exist
func (i *Index) init() error {
	createTilesets := `CREATE TABLE IF NOT EXISTS tilesets(
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL
	    );`
	_, err := i.db.Exec(createTilesets)
	if err != nil {
		return err
	}

	createTiles := `CREATE TABLE IF NOT EXISTS tiles(
		id TEXT PRIMARY KEY,
		tileset TEXT NOT NULL,
		tile INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		props TEXT NOT NULL
	    );`
	_, err = i.db.Exec(createTiles)
	return err
}

// dbProps is how properties are stored as JSON
type dbProps struct {
	I map[string]int
	S map[string]string
	B map[string]bool
	F map[string]float64
	T map[string]string `json:",omitempty"`
}

func newDBProps(p *Properties) dbProps {
	return dbProps{I: p.ints, S: p.strings, B: p.bools, F: p.floats, T: p.declared}
}

// properties returns the stored properties (nil maps are made empty)
func (d dbProps) properties() *Properties {
	p := NewProperties()
	for k, v := range d.I {
		p.ints[k] = v
	}
	for k, v := range d.S {
		p.strings[k] = v
	}
	for k, v := range d.B {
		p.bools[k] = v
	}
	for k, v := range d.F {
		p.floats[k] = v
	}
	for k, v := range d.T {
		p.declared[k] = v
	}
	return p
}

// dbTilesetData is the JSON blob stored per tileset
type dbTilesetData struct {
	Meta     Tileset
	Terrains []TerrainType
	Props    dbProps
}

// dbTileset object encodes the tileset wide data.
type dbTileset struct {
	Name string `db:"name"`
	Data string `db:"data"`
}

func newDBTileset(name string, c *Catalog) (dbTileset, error) {
	databytes, err := json.Marshal(dbTilesetData{
		Meta:     c.meta,
		Terrains: c.terrains,
		Props:    newDBProps(c.props),
	})
	if err != nil {
		return dbTileset{}, err
	}
	return dbTileset{Name: name, Data: string(databytes)}, nil
}

// dbTile object encodes a single declared tile.
// The ID here is unique over all tilesets (tileset-tile).
type dbTile struct {
	ID      string `db:"id"`
	Tileset string `db:"tileset"`
	Tile    int64  `db:"tile"`
	Terrain string `db:"terrain"`
	Props   string `db:"props"`
}

// newDBTile crafts a dbTile struct given it's inputs.
// Properties are encoded into JSON.
func newDBTile(tileset string, id uint, rec *record) (dbTile, error) {
	terrain := ""
	if rec.hasTerrain {
		terrain = encodeTerrain(rec.terrain)
	}

	databytes, err := json.Marshal(newDBProps(rec.props))
	if err != nil {
		return dbTile{}, fmt.Errorf("tileset %s tile %d: %w", tileset, id, err)
	}

	return dbTile{
		ID:      fmt.Sprintf("%s-%d", tileset, id),
		Tileset: tileset,
		Tile:    int64(id),
		Terrain: terrain,
		Props:   string(databytes),
	}, nil
}
