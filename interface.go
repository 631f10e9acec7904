package tileset

// Lookup is what an engine needs from a tileset at runtime
type Lookup interface {
	// Terrain returns the corner terrains of a tile (if it has any)
	Terrain(id uint) (Corners, bool)

	// Property returns a typed property of a tile (if set)
	Property(id uint, key string) (Value, bool)

	// TerrainName resolves a terrain index, failing with a *LookupError
	// if the index isn't declared
	TerrainName(index int) (string, error)

	// MovementCost of a tile (if set)
	MovementCost(id uint) (int, bool)

	// BlocksVision returns if the tile blocks line of sight
	BlocksVision(id uint) bool
}

var _ Lookup = (*Catalog)(nil)
