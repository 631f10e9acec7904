package tileset

import (
	"go.uber.org/zap"
)

// Config includes settings for loading a tileset
type Config struct {
	// fail the load if tilecount isn't rows * columns of the atlas image
	// (otherwise we only log a warning, since plenty of real files are off)
	StrictTileCount bool `yaml:"strict_tile_count"`

	// where to log to, nil means don't
	Logger *zap.Logger `yaml:"-"`
}

// DefaultConfig returns a loader config with default settings.
func DefaultConfig() *Config {
	return &Config{
		StrictTileCount: false,
		Logger:          zap.NewNop(),
	}
}

func (c *Config) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
