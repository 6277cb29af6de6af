package asset

// EventKind identifies what happened to an asset.
type EventKind int

const (
	// Created indicates the asset was added.
	Created EventKind = iota

	// Modified indicates the asset's contents changed in place.
	Modified

	// Removed indicates the asset was dropped. The event's Asset field is the zero value.
	Removed
)

// String returns the lowercase name of the event kind.
func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a single change notification for an asset of type T.
type Event[T any] struct {
	Kind  EventKind
	ID    ID
	Asset T
}

// CreatedEvent returns a Created event for the asset.
//
// Parameters:
//   - id: the asset ID
//   - a: the new asset
//
// Returns:
//   - Event[T]: the event
func CreatedEvent[T any](id ID, a T) Event[T] {
	return Event[T]{Kind: Created, ID: id, Asset: a}
}

// ModifiedEvent returns a Modified event for the asset.
//
// Parameters:
//   - id: the asset ID
//   - a: the updated asset
//
// Returns:
//   - Event[T]: the event
func ModifiedEvent[T any](id ID, a T) Event[T] {
	return Event[T]{Kind: Modified, ID: id, Asset: a}
}

// RemovedEvent returns a Removed event for the asset.
//
// Parameters:
//   - id: the asset ID
//
// Returns:
//   - Event[T]: the event
func RemovedEvent[T any](id ID) Event[T] {
	return Event[T]{Kind: Removed, ID: id}
}
