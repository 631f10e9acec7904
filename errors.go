package tileset

import (
	"fmt"
)

// ParseError is returned when a tileset document can't be loaded.
// No catalog is ever returned alongside it.
type ParseError struct {
	Source string // file name, if known
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("tileset: parse: %v", e.Err)
	}
	return fmt.Sprintf("tileset: parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LookupError is returned when asking for something outside of what a
// tileset declares (terrain index, tile outside the atlas, unknown name).
type LookupError struct {
	What  string // "terrain", "tile", "tileset" ..
	Key   string
	Limit int // number of declared entries, -1 if not applicable
}

func (e *LookupError) Error() string {
	if e.Limit < 0 {
		return fmt.Sprintf("tileset: %s %s not found", e.What, e.Key)
	}
	return fmt.Sprintf("tileset: %s %s out of range (have %d)", e.What, e.Key, e.Limit)
}

// parseErrorf builds a ParseError from a format string
func parseErrorf(format string, args ...interface{}) *ParseError {
	return &ParseError{Err: fmt.Errorf(format, args...)}
}
