package flashsim

import (
	"fmt"

	"lumenmesh/internal/flash"
)

// Open builds a flash.Primitive of the given kind. "" and "memory" build an
// in-RAM MemoryDevice; "sqlite" builds a SQLiteDevice at path, available
// only in binaries built with -tags sqlite.
func Open(kind, path string) (flash.Primitive, error) {
	switch kind {
	case "", "memory":
		return NewMemoryDevice(), nil
	case "sqlite":
		return openSQLite(path)
	default:
		return nil, fmt.Errorf("flashsim: unsupported backend: %s", kind)
	}
}
