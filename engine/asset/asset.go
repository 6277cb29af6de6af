// Package asset defines identities for engine assets (meshes, materials, textures) and the change events
// the host emits when those assets are created, modified or removed.
package asset

import (
	"bytes"

	"github.com/google/uuid"
)

// namespace scopes name-derived IDs so they never collide with IDs from other uuid namespaces.
var namespace = uuid.MustParse("6f7a1c0e-3b52-4d4e-9a61-0f5d2c8e7b14")

// ID identifies an asset. IDs are totally ordered so that anything keyed by them can be iterated deterministically.
type ID struct {
	uuid.UUID
}

// Nil is the zero ID. It never identifies a live asset.
var Nil = ID{}

// NewID returns a random asset ID.
//
// Returns:
//   - ID: a fresh random ID
func NewID() ID {
	return ID{uuid.New()}
}

// NamedID returns an ID derived from name. The same name always yields the same ID.
//
// Parameters:
//   - name: the stable asset name
//
// Returns:
//   - ID: the name-derived ID
func NamedID(name string) ID {
	return ID{uuid.NewSHA1(namespace, []byte(name))}
}

// IsNil reports whether id is the zero ID.
func (id ID) IsNil() bool {
	return id.UUID == uuid.Nil
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to or after b.
//
// Parameters:
//   - a: the first ID
//   - b: the second ID
//
// Returns:
//   - int: the comparison result
func Compare(a, b ID) int {
	return bytes.Compare(a.UUID[:], b.UUID[:])
}

// Less reports whether a sorts before b.
func Less(a, b ID) bool {
	return Compare(a, b) < 0
}
