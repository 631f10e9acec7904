/* file holds the catalog: a read only view over a parsed tileset.
 */
package tileset

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"io"
	"os"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

const (
	// NoTile is the representative tile of a terrain type that has none
	NoTile = -1

	// NoTerrain marks a tile corner without a terrain
	NoTerrain = -1

	// Impassable is the movement_cost engines read as "can't walk here".
	// The catalog never interprets it.
	Impassable = -1
)

const (
	// Well known property keys
	KeyMovementCost = "movement_cost"
	KeyBlocksVision = "blocks_vision"
)

// Corners holds terrain indexes of a tile: top-left, top-right, bottom-left, bottom-right
type Corners [4]int

// Tileset is the atlas metadata
type Tileset struct {
	Name       string
	Image      Image
	TileWidth  int // in pixels
	TileHeight int // in pixels
	Columns    int
	TileCount  int
	Margin     int
	Spacing    int
}

// Rows returns the number of tile rows in the atlas image.
// If the image height isn't known we work it out from the tile count.
func (t Tileset) Rows() int {
	if t.Image.Height > 0 && t.TileHeight > 0 {
		return (t.Image.Height - 2*t.Margin + t.Spacing) / (t.TileHeight + t.Spacing)
	}
	if t.Columns <= 0 {
		return 0
	}
	return (t.TileCount + t.Columns - 1) / t.Columns
}

// TerrainType is a named terrain class
type TerrainType struct {
	Name string
	Tile int // representative tile id or NoTile
}

// record is what we know about one declared tile
type record struct {
	hasTerrain bool
	terrain    Corners
	props      *Properties
}

// Catalog answers queries about the tiles of one tileset.
// It is never modified after Load, so it's safe to share between goroutines.
type Catalog struct {
	meta     Tileset
	props    *Properties
	terrains []TerrainType
	tiles    map[uint]*record
}

// Load a TSX tileset document.
// A nil config means DefaultConfig().
func Load(r io.Reader, cfg *Config) (*Catalog, error) {
	raw := &rawTileset{}
	dec := xml.NewDecoder(r)
	if err := dec.Decode(raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	if err := checkTrailing(dec); err != nil {
		return nil, &ParseError{Err: err}
	}

	c, err := newCatalog(raw, cfg)
	if err != nil {
		return nil, err
	}

	cfg.logger().Debug(
		"loaded tileset",
		zap.String("name", c.meta.Name),
		zap.String("image", c.meta.Image.Source),
		zap.Int("tilecount", c.meta.TileCount),
		zap.Int("terrains", len(c.terrains)),
		zap.Int("tiles", len(c.tiles)),
	)
	return c, nil
}

// checkTrailing reads the rest of the document after the root element.
// Only comments, processing instructions & whitespace may follow it.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after </tileset>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("unexpected text after </tileset>")
			}
		}
	}
}

// Open and Load the given TSX file
func Open(fname string, cfg *Config) (*Catalog, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Load(f, cfg)
	if perr, ok := err.(*ParseError); ok {
		perr.Source = fname
	}
	return c, err
}

// newCatalog validates the raw XML & builds our lookup tables
func newCatalog(raw *rawTileset, cfg *Config) (*Catalog, error) {
	if raw.Image == nil || raw.Image.Source == "" {
		return nil, parseErrorf("missing image source")
	}
	if raw.TileWidth == nil || *raw.TileWidth <= 0 {
		return nil, parseErrorf("missing or invalid tilewidth")
	}
	if raw.TileHeight == nil || *raw.TileHeight <= 0 {
		return nil, parseErrorf("missing or invalid tileheight")
	}
	if raw.Columns == nil || *raw.Columns <= 0 {
		return nil, parseErrorf("missing or invalid columns")
	}
	if raw.TileCount < 0 || raw.Margin < 0 || raw.Spacing < 0 {
		return nil, parseErrorf("negative tilecount, margin or spacing")
	}

	c := &Catalog{
		meta: Tileset{
			Name:       raw.Name,
			Image:      *raw.Image,
			TileWidth:  *raw.TileWidth,
			TileHeight: *raw.TileHeight,
			Columns:    *raw.Columns,
			TileCount:  raw.TileCount,
			Margin:     raw.Margin,
			Spacing:    raw.Spacing,
		},
		terrains: make([]TerrainType, 0, len(raw.Terrains)),
		tiles:    make(map[uint]*record, len(raw.Tiles)),
	}

	if c.meta.Image.Height > 0 {
		expect := c.meta.Rows() * c.meta.Columns
		if expect != c.meta.TileCount {
			if cfg != nil && cfg.StrictTileCount {
				return nil, parseErrorf("tilecount %d, atlas holds %d", c.meta.TileCount, expect)
			}
			cfg.logger().Warn(
				"tilecount does not match atlas",
				zap.String("name", c.meta.Name),
				zap.Int("tilecount", c.meta.TileCount),
				zap.Int("expected", expect),
			)
		}
	}

	props, err := newPropertiesFromList(raw.Properties)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	c.props = props

	for _, t := range raw.Terrains {
		tt := TerrainType{Name: t.Name, Tile: NoTile}
		if t.Tile != nil {
			tt.Tile = *t.Tile
		}
		c.terrains = append(c.terrains, tt)
	}

	for _, t := range raw.Tiles {
		if _, ok := c.tiles[t.ID]; ok {
			return nil, parseErrorf("duplicate tile id %d", t.ID)
		}

		rec := &record{props: NewProperties()}

		if t.Terrain != "" {
			corners, err := decodeTerrain(t.Terrain)
			if err != nil {
				return nil, &ParseError{Err: fmt.Errorf("tile %d: %w", t.ID, err)}
			}
			rec.hasTerrain = true
			rec.terrain = corners
		}

		// object group properties first so the tile's own win
		if t.ObjectGroup != nil {
			ogprops, err := newPropertiesFromList(t.ObjectGroup.Properties)
			if err != nil {
				return nil, &ParseError{Err: fmt.Errorf("tile %d: %w", t.ID, err)}
			}
			rec.props.Merge(ogprops)
		}
		tprops, err := newPropertiesFromList(t.Properties)
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("tile %d: %w", t.ID, err)}
		}
		rec.props.Merge(tprops)

		c.tiles[t.ID] = rec
	}

	return c, nil
}

// Tileset returns the atlas metadata
func (c *Catalog) Tileset() Tileset {
	return c.meta
}

// TilesetProperties returns a copy of the properties set on the tileset itself
func (c *Catalog) TilesetProperties() *Properties {
	return c.props.Copy()
}

// Terrains returns the declared terrain types, in index order
func (c *Catalog) Terrains() []TerrainType {
	out := make([]TerrainType, len(c.terrains))
	copy(out, c.terrains)
	return out
}

// TileIDs returns the ids of every explicitly declared tile, low -> high
func (c *Catalog) TileIDs() []uint {
	ids := make([]uint, 0, len(c.tiles))
	for id := range c.tiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Terrain returns the corner terrains of a tile, if it has any
func (c *Catalog) Terrain(id uint) (Corners, bool) {
	rec, ok := c.tiles[id]
	if !ok || !rec.hasTerrain {
		return Corners{}, false
	}
	return rec.terrain, true
}

// Property returns the value of `key` on the given tile.
// Unknown tiles and unset keys are simply absent.
func (c *Catalog) Property(id uint, key string) (Value, bool) {
	rec, ok := c.tiles[id]
	if !ok {
		return Value{}, false
	}
	return rec.props.Get(key)
}

// Properties returns a copy of all properties on the tile (or nil if the
// tile isn't declared)
func (c *Catalog) Properties(id uint) *Properties {
	rec, ok := c.tiles[id]
	if !ok {
		return nil
	}
	return rec.props.Copy()
}

// MovementCost of the tile, if set as an int.
// Impassable tiles report Impassable.
func (c *Catalog) MovementCost(id uint) (int, bool) {
	v, ok := c.Property(id, KeyMovementCost)
	if !ok {
		return 0, false
	}
	return v.Int()
}

// BlocksVision reports if the tile has blocks_vision=true
func (c *Catalog) BlocksVision(id uint) bool {
	v, ok := c.Property(id, KeyBlocksVision)
	if !ok {
		return false
	}
	b, _ := v.Bool()
	return b
}

// TerrainName resolves a terrain index to its name
func (c *Catalog) TerrainName(index int) (string, error) {
	if index < 0 || index >= len(c.terrains) {
		return "", &LookupError{What: "terrain", Key: strconv.Itoa(index), Limit: len(c.terrains)}
	}
	return c.terrains[index].Name, nil
}

// TerrainIndex returns the index of the first terrain called `name`
func (c *Catalog) TerrainIndex(name string) (int, error) {
	for i, t := range c.terrains {
		if t.Name == name {
			return i, nil
		}
	}
	return -1, &LookupError{What: "terrain", Key: strconv.Quote(name), Limit: -1}
}

// TileRect returns where the given tile sits in the atlas image (in pixels)
func (c *Catalog) TileRect(id uint) (image.Rectangle, error) {
	limit := c.meta.TileCount
	if limit <= 0 {
		limit = c.meta.Rows() * c.meta.Columns
	}
	if limit <= 0 || id >= uint(limit) {
		return image.Rectangle{}, &LookupError{What: "tile", Key: strconv.FormatUint(uint64(id), 10), Limit: limit}
	}

	col := int(id) % c.meta.Columns
	row := int(id) / c.meta.Columns

	x := c.meta.Margin + col*(c.meta.TileWidth+c.meta.Spacing)
	y := c.meta.Margin + row*(c.meta.TileHeight+c.meta.Spacing)

	return image.Rect(x, y, x+c.meta.TileWidth, y+c.meta.TileHeight), nil
}

// toRaw turns the catalog back into the XML structs.
// Tiles & properties are sorted so output is stable.
func (c *Catalog) toRaw() *rawTileset {
	tw, th, cols := c.meta.TileWidth, c.meta.TileHeight, c.meta.Columns
	img := c.meta.Image

	raw := &rawTileset{
		Version:    "1.2",
		Name:       c.meta.Name,
		TileWidth:  &tw,
		TileHeight: &th,
		Spacing:    c.meta.Spacing,
		Margin:     c.meta.Margin,
		TileCount:  c.meta.TileCount,
		Columns:    &cols,
		Properties: sortedList(c.props),
		Image:      &img,
		Terrains:   make([]*rawTerrain, 0, len(c.terrains)),
		Tiles:      make([]*rawTile, 0, len(c.tiles)),
	}

	for _, t := range c.terrains {
		tile := t.Tile
		raw.Terrains = append(raw.Terrains, &rawTerrain{Name: t.Name, Tile: &tile})
	}

	for _, id := range c.TileIDs() {
		rec := c.tiles[id]
		t := &rawTile{ID: id, Properties: sortedList(rec.props)}
		if rec.hasTerrain {
			t.Terrain = encodeTerrain(rec.terrain)
		}
		raw.Tiles = append(raw.Tiles, t)
	}

	return raw
}

// sortedList is toList ordered by property name
func sortedList(p *Properties) []*Property {
	ps := p.toList()
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ps
}

// Encode the catalog as TSX XML to a io.Writer stream
func (c *Catalog) Encode(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", " ")
	if err := enc.Encode(c.toRaw()); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile encodes the catalog to the given file
func (c *Catalog) WriteFile(fname string) error {
	buff := bytes.Buffer{}
	err := c.Encode(&buff)
	if err != nil {
		return err
	}
	return os.WriteFile(fname, buff.Bytes(), 0644)
}
