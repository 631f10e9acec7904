/* this file is a simplified set of structs for reading & writing TSX files
(Tiled's external tileset format).

The layout follows github.com/bcvery1/tilepix / the Tiled docs, but we only parse
what a tileset catalog needs: the atlas image, terrain types and per tile
terrain corners + properties. Anything else (wang sets, animations, collision
shapes) is skipped by the decoder.
*/
package tileset

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// rawTileset is the TSX <tileset> root element.
// Required attributes are pointers so we can tell "missing" from "0".
type rawTileset struct {
	XMLName    xml.Name      `xml:"tileset"`
	Version    string        `xml:"version,attr,omitempty"`
	Name       string        `xml:"name,attr"`
	TileWidth  *int          `xml:"tilewidth,attr"`
	TileHeight *int          `xml:"tileheight,attr"`
	Spacing    int           `xml:"spacing,attr,omitempty"`
	Margin     int           `xml:"margin,attr,omitempty"`
	TileCount  int           `xml:"tilecount,attr"`
	Columns    *int          `xml:"columns,attr"`
	Properties []*Property   `xml:"properties>property"`
	Image      *Image        `xml:"image"`
	Terrains   []*rawTerrain `xml:"terraintypes>terrain"`
	Tiles      []*rawTile    `xml:"tile"`
}

// Image is the atlas image of a tileset
type Image struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

// Property is a TSX file structure which holds a Tiled property.
type Property struct {
	Name  string `xml:"name,attr"`
	Type  string `xml:"type,attr,omitempty"` // string (default), int, bool, float + other (kept as string)
	Value string `xml:"value,attr"`
}

// rawTerrain is a <terrain> entry of <terraintypes>
type rawTerrain struct {
	Name string `xml:"name,attr"`
	Tile *int   `xml:"tile,attr"` // missing means NoTile
}

// rawTile is a <tile> entry
type rawTile struct {
	ID          uint            `xml:"id,attr"`
	Terrain     string          `xml:"terrain,attr,omitempty"`
	Properties  []*Property     `xml:"properties>property"`
	ObjectGroup *rawObjectGroup `xml:"objectgroup"`
}

// rawObjectGroup is the collision object group of a tile. Older Tiled
// versions saved tile properties in here, so we read them too.
type rawObjectGroup struct {
	DrawOrder  string      `xml:"draworder,attr,omitempty"`
	Name       string      `xml:"name,attr,omitempty"`
	Properties []*Property `xml:"properties>property"`
}

// decodeTerrain reads the "tl,tr,bl,br" terrain attribute.
// An empty corner ("0,,0,1") becomes NoTerrain.
func decodeTerrain(in string) (Corners, error) {
	var c Corners

	parts := strings.Split(in, ",")
	if len(parts) != 4 {
		return c, fmt.Errorf("terrain %q: expected 4 corners, got %d", in, len(parts))
	}

	for i, s := range parts {
		s = strings.TrimSpace(s)
		if s == "" {
			c[i] = NoTerrain
			continue
		}
		v, err := strconv.ParseUint(s, 10, 31)
		if err != nil {
			return c, fmt.Errorf("terrain %q: %w", in, err)
		}
		c[i] = int(v)
	}

	return c, nil
}

// encodeTerrain is the reverse of decodeTerrain
func encodeTerrain(c Corners) string {
	parts := make([]string, len(c))
	for i, v := range c {
		if v == NoTerrain {
			continue
		}
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
