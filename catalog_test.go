package tileset

import (
	"bytes"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicTileset = "testdata/basic_tileset.tsx"

// small covers the odd corners of the format: empty terrain corners, props
// directly on a tile and in an object group, untyped & unknown typed props.
const small = `<?xml version="1.0" encoding="UTF-8"?>
<tileset version="1.2" name="small" tilewidth="16" tileheight="16" spacing="2" margin="1" tilecount="6" columns="3">
 <properties>
  <property name="author" value="someone"/>
 </properties>
 <image source="small.png" width="56" height="38"/>
 <terraintypes>
  <terrain name="water" tile="3"/>
  <terrain name="sand" tile="-1"/>
 </terraintypes>
 <wangsets/>
 <tile id="0" terrain="0,,1,1" probability="0.5">
  <properties>
   <property name="movement_cost" type="int" value="3"/>
   <property name="tint" type="color" value="#ff00ff00"/>
   <property name="note" value="shore"/>
   <property name="friction" type="float" value="0.25"/>
  </properties>
  <objectgroup draworder="index">
   <properties>
    <property name="movement_cost" type="int" value="9"/>
    <property name="blocks_vision" type="bool" value="true"/>
   </properties>
  </objectgroup>
 </tile>
 <tile id="5">
  <animation/>
 </tile>
</tileset>
`

func loadBasic(t *testing.T) *Catalog {
	c, err := Open(basicTileset, nil)
	require.NoError(t, err)
	return c
}

func TestOpen(t *testing.T) {
	c := loadBasic(t)

	ts := c.Tileset()
	assert.Equal(t, "basic_tileset", ts.Name)
	assert.Equal(t, "tilesheet_complete.png", ts.Image.Source)
	assert.Equal(t, 1728, ts.Image.Width)
	assert.Equal(t, 1280, ts.Image.Height)
	assert.Equal(t, 64, ts.TileWidth)
	assert.Equal(t, 64, ts.TileHeight)
	assert.Equal(t, 27, ts.Columns)
	assert.Equal(t, 540, ts.TileCount)
	assert.Equal(t, 20, ts.Rows())

	assert.Equal(t, []TerrainType{
		{Name: "grass", Tile: NoTile},
		{Name: "dirt", Tile: NoTile},
		{Name: "wooden floor", Tile: 41},
	}, c.Terrains())

	assert.Equal(t, 19, len(c.TileIDs()))
	assert.Equal(t, uint(0), c.TileIDs()[0])
	assert.Equal(t, uint(539), c.TileIDs()[18])
}

func TestProperty(t *testing.T) {
	c := loadBasic(t)

	v, ok := c.Property(41, KeyMovementCost)
	assert.True(t, ok)
	assert.Equal(t, KindInt, v.Kind())
	cost, ok := v.Int()
	assert.True(t, ok)
	assert.Equal(t, 1, cost)

	_, ok = c.Property(40, KeyMovementCost)
	assert.False(t, ok)

	// declared tile, key not set
	_, ok = c.Property(0, KeyMovementCost)
	assert.False(t, ok)

	v, ok = c.Property(539, KeyMovementCost)
	assert.True(t, ok)
	cost, _ = v.Int()
	assert.Equal(t, -1, cost)
	assert.Equal(t, Impassable, cost)

	v, ok = c.Property(492, KeyBlocksVision)
	assert.True(t, ok)
	b, ok := v.Bool()
	assert.True(t, ok)
	assert.True(t, b)

	// type mismatch is the caller's problem, not a conversion
	_, ok = v.Int()
	assert.False(t, ok)

	v, ok = c.Property(519, KeyBlocksVision)
	assert.True(t, ok)
	b, _ = v.Bool()
	assert.False(t, b)
}

func TestUndeclaredTiles(t *testing.T) {
	c := loadBasic(t)

	declared := map[uint]bool{}
	for _, id := range c.TileIDs() {
		declared[id] = true
	}

	for id := uint(0); id < 540; id++ {
		if declared[id] {
			continue
		}
		_, ok := c.Terrain(id)
		assert.False(t, ok, "tile %d", id)
		_, ok = c.Property(id, KeyMovementCost)
		assert.False(t, ok, "tile %d", id)
		_, ok = c.Property(id, KeyBlocksVision)
		assert.False(t, ok, "tile %d", id)
		assert.Nil(t, c.Properties(id))
		assert.False(t, c.BlocksVision(id))
	}
}

func TestMovementCostAndVision(t *testing.T) {
	c := loadBasic(t)

	cases := []struct {
		id      uint
		cost    int
		hasCost bool
		blocks  bool
	}{
		{0, 0, false, false},
		{41, 1, true, false},
		{46, 1, true, false},
		{441, 2, true, false},
		{445, 2, true, false},
		{492, 0, false, true},
		{493, 0, false, true},
		{519, 0, false, false},
		{520, 0, false, true},
		{539, Impassable, true, false},
		{100, 0, false, false},
	}

	for _, tt := range cases {
		cost, ok := c.MovementCost(tt.id)
		assert.Equal(t, tt.hasCost, ok, "tile %d", tt.id)
		assert.Equal(t, tt.cost, cost, "tile %d", tt.id)
		assert.Equal(t, tt.blocks, c.BlocksVision(tt.id), "tile %d", tt.id)
	}
}

func TestTerrain(t *testing.T) {
	c := loadBasic(t)

	corners, ok := c.Terrain(41)
	assert.True(t, ok)
	assert.Equal(t, Corners{2, 2, 2, 2}, corners)

	name, err := c.TerrainName(corners[0])
	assert.Nil(t, err)
	assert.Equal(t, "wooden floor", name)

	corners, ok = c.Terrain(4)
	assert.True(t, ok)
	assert.Equal(t, Corners{1, 1, 1, 1}, corners)

	// declared, but no terrain
	_, ok = c.Terrain(441)
	assert.False(t, ok)
}

func TestTerrainNameRoundTrip(t *testing.T) {
	c := loadBasic(t)

	for i, tt := range c.Terrains() {
		idx, err := c.TerrainIndex(tt.Name)
		assert.Nil(t, err)
		assert.Equal(t, i, idx)

		name, err := c.TerrainName(idx)
		assert.Nil(t, err)
		assert.Equal(t, tt.Name, name)
	}

	_, err := c.TerrainIndex("lava")
	var lerr *LookupError
	assert.True(t, errors.As(err, &lerr))
}

func TestTerrainNameOutOfRange(t *testing.T) {
	c := loadBasic(t)

	for _, idx := range []int{3, 100, -1} {
		name, err := c.TerrainName(idx)
		assert.Equal(t, "", name)

		var lerr *LookupError
		if assert.True(t, errors.As(err, &lerr), "index %d", idx) {
			assert.Equal(t, "terrain", lerr.What)
			assert.Equal(t, 3, lerr.Limit)
		}
	}
}

func TestLoadSmall(t *testing.T) {
	c, err := Load(strings.NewReader(small), nil)
	require.NoError(t, err)

	corners, ok := c.Terrain(0)
	assert.True(t, ok)
	assert.Equal(t, Corners{0, NoTerrain, 1, 1}, corners)

	// the tile's own property beats the object group's
	cost, ok := c.MovementCost(0)
	assert.True(t, ok)
	assert.Equal(t, 3, cost)
	assert.True(t, c.BlocksVision(0))

	v, ok := c.Property(0, "note")
	assert.True(t, ok)
	s, ok := v.Str()
	assert.True(t, ok)
	assert.Equal(t, "shore", s)

	v, ok = c.Property(0, "tint")
	assert.True(t, ok)
	assert.Equal(t, KindString, v.Kind())
	assert.Equal(t, "#ff00ff00", v.String())

	v, ok = c.Property(0, "friction")
	assert.True(t, ok)
	f, ok := v.Float()
	assert.True(t, ok)
	assert.Equal(t, 0.25, f)

	// declared with nothing we read
	assert.Contains(t, c.TileIDs(), uint(5))
	assert.Equal(t, 0, c.Properties(5).Len())
	_, ok = c.Terrain(5)
	assert.False(t, ok)

	author, ok := c.TilesetProperties().String("author")
	assert.True(t, ok)
	assert.Equal(t, "someone", author)

	assert.Equal(t, []TerrainType{{Name: "water", Tile: 3}, {Name: "sand", Tile: NoTile}}, c.Terrains())
}

func TestTileRect(t *testing.T) {
	c, err := Load(strings.NewReader(small), nil)
	require.NoError(t, err)

	r, err := c.TileRect(0)
	assert.Nil(t, err)
	assert.Equal(t, image.Rect(1, 1, 17, 17), r)

	r, err = c.TileRect(4)
	assert.Nil(t, err)
	assert.Equal(t, image.Rect(19, 19, 35, 35), r)

	_, err = c.TileRect(6)
	var lerr *LookupError
	assert.True(t, errors.As(err, &lerr))

	// must not wrap around to a valid index
	_, err = c.TileRect(math.MaxUint)
	assert.True(t, errors.As(err, &lerr))
	assert.Equal(t, strconv.FormatUint(math.MaxUint, 10), lerr.Key)
	assert.Equal(t, 6, lerr.Limit)

	basic := loadBasic(t)
	r, err = basic.TileRect(28)
	assert.Nil(t, err)
	assert.Equal(t, image.Rect(64, 64, 128, 128), r)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"empty":      ``,
		"not xml":    `this is not xml`,
		"truncated":  `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>`,
		"wrong root": `<map tilewidth="16" tileheight="16" columns="1"><image source="a.png"/></map>`,
		"no image":   `<tileset tilewidth="16" tileheight="16" columns="1"></tileset>`,
		"no source":  `<tileset tilewidth="16" tileheight="16" columns="1"><image width="16"/></tileset>`,
		"no width":   `<tileset tileheight="16" columns="1"><image source="a.png"/></tileset>`,
		"no height":  `<tileset tilewidth="16" columns="1"><image source="a.png"/></tileset>`,
		"no columns": `<tileset tilewidth="16" tileheight="16"><image source="a.png"/></tileset>`,
		"bad width":  `<tileset tilewidth="x" tileheight="16" columns="1"><image source="a.png"/></tileset>`,
		"negative id": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>
			<tile id="-1"/></tileset>`,
		"duplicate id": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>
			<tile id="1"/><tile id="1"/></tileset>`,
		"3 corners": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>
			<tile id="1" terrain="0,0,0"/></tileset>`,
		"bad corner": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>
			<tile id="1" terrain="0,0,a,0"/></tileset>`,
		"bad int": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>
			<tile id="1"><properties><property name="movement_cost" type="int" value="one"/></properties></tile></tileset>`,
		"bad bool": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>
			<tile id="1"><objectgroup><properties><property name="blocks_vision" type="bool" value="yes please"/></properties></objectgroup></tile></tileset>`,
		"int overflow": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/>
			<tile id="1"><properties><property name="movement_cost" type="int" value="99999999999999999999999"/></properties></tile></tileset>`,
		"trailing junk": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/></tileset>garbage`,
		"two roots": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/></tileset>
			<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/></tileset>`,
		"unclosed trailer": `<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/></tileset><extra>`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := Load(strings.NewReader(doc), nil)
			assert.Nil(t, c)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr), "got %v", err)
		})
	}
}

func TestLoadAllowsTrailingComments(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<tileset tilewidth="16" tileheight="16" columns="1"><image source="a.png"/></tileset>
<!-- saved by hand -->
`
	c, err := Load(strings.NewReader(doc), nil)
	require.NoError(t, err)
	assert.Equal(t, 16, c.Tileset().TileWidth)
}

func TestOpenParseErrorHasSource(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "broken.tsx")
	require.NoError(t, os.WriteFile(fname, []byte(`<tileset tilewidth="16"/>`), 0644))

	_, err := Open(fname, nil)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, fname, perr.Source)
	assert.Contains(t, err.Error(), fname)
}

func TestStrictTileCount(t *testing.T) {
	doc := `<tileset tilewidth="16" tileheight="16" tilecount="5" columns="2">
		<image source="a.png" width="32" height="32"/></tileset>`

	c, err := Load(strings.NewReader(doc), DefaultConfig())
	assert.Nil(t, err)
	assert.NotNil(t, c)

	c, err = Load(strings.NewReader(doc), &Config{StrictTileCount: true})
	assert.Nil(t, c)
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestLoadIsIdempotent(t *testing.T) {
	a := loadBasic(t)
	b := loadBasic(t)

	assert.True(t, cmp.Equal(a, b, cmp.AllowUnexported(Catalog{}, record{}, Properties{})))

	for id := uint(0); id < 540; id++ {
		ca, oka := a.Terrain(id)
		cb, okb := b.Terrain(id)
		assert.Equal(t, oka, okb)
		assert.Equal(t, ca, cb)

		for _, key := range []string{KeyMovementCost, KeyBlocksVision} {
			va, oka := a.Property(id, key)
			vb, okb := b.Property(id, key)
			assert.Equal(t, oka, okb)
			assert.Equal(t, va, vb)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, src := range []string{basicTileset, "small"} {
		var (
			c   *Catalog
			err error
		)
		if src == "small" {
			c, err = Load(strings.NewReader(small), nil)
		} else {
			c, err = Open(src, nil)
		}
		require.NoError(t, err)

		buf := bytes.Buffer{}
		require.NoError(t, c.Encode(&buf))

		again, err := Load(&buf, nil)
		require.NoError(t, err, buf.String())

		diff := cmp.Diff(c, again, cmp.AllowUnexported(Catalog{}, record{}, Properties{}))
		assert.Equal(t, "", diff, src)
	}
}

func TestWriteFile(t *testing.T) {
	c := loadBasic(t)

	fname := filepath.Join(t.TempDir(), "out.tsx")
	require.NoError(t, c.WriteFile(fname))

	again, err := Open(fname, nil)
	require.NoError(t, err)
	assert.Equal(t, c.TileIDs(), again.TileIDs())
	assert.Equal(t, c.Tileset(), again.Tileset())
}

func TestAccessorsReturnCopies(t *testing.T) {
	c := loadBasic(t)

	terrains := c.Terrains()
	terrains[0].Name = "lava"
	name, _ := c.TerrainName(0)
	assert.Equal(t, "grass", name)

	props := c.Properties(41)
	props.SetInt(KeyMovementCost, 99)
	cost, _ := c.MovementCost(41)
	assert.Equal(t, 1, cost)
}
