// Package events records the mutating actions performed for an agent session.
package events

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind names an event variant. It is also the predicate the event is mirrored under.
type Kind string

const (
	KindCurrentLocationSet Kind = "current_location_set"
	KindLocationCreated    Kind = "location_created"
	KindItemCreated        Kind = "item_created"
	KindQuantityChanged    Kind = "quantity_changed"
)

// Event is an immutable record of a completed mutating action.
type Event interface {
	Kind() Kind
	Describe() string
}

// Undoable marks events that carry enough state to be reverted.
type Undoable interface {
	Event
	undoable()
}

// IsUndoable reports whether e is tagged as undoable.
func IsUndoable(e Event) bool {
	_, ok := e.(Undoable)
	return ok
}

// Describe renders e as a single human readable line.
func Describe(e Event) string {
	if e == nil {
		return ""
	}
	return e.Describe()
}

// CurrentLocationSet records a change of the session's current location.
// PreviousLocationID is nil when no location had been set before.
type CurrentLocationSet struct {
	RequestedPath      string     `json:"requested_path"`
	NewLocationID      uuid.UUID  `json:"new_location_id"`
	PreviousLocationID *uuid.UUID `json:"previous_location_id,omitempty"`
}

func (CurrentLocationSet) Kind() Kind { return KindCurrentLocationSet }
func (CurrentLocationSet) undoable()  {}
func (e CurrentLocationSet) Describe() string {
	return fmt.Sprintf("Current location set to %s", e.RequestedPath)
}

// LocationCreated records a new location below ParentPath.
type LocationCreated struct {
	Name       string    `json:"name"`
	ParentPath string    `json:"parent_path"`
	LocationID uuid.UUID `json:"location_id"`
}

func (LocationCreated) Kind() Kind { return KindLocationCreated }
func (LocationCreated) undoable()  {}
func (e LocationCreated) Describe() string {
	return fmt.Sprintf("Location %s created in %s", e.Name, e.ParentPath)
}

// ItemCreated records a new item below ParentPath.
type ItemCreated struct {
	Name       string    `json:"name"`
	ParentPath string    `json:"parent_path"`
	ItemID     uuid.UUID `json:"item_id"`
	Quantity   int       `json:"quantity"`
}

func (ItemCreated) Kind() Kind { return KindItemCreated }
func (ItemCreated) undoable()  {}
func (e ItemCreated) Describe() string {
	if e.Quantity != 1 {
		return fmt.Sprintf("Item %s created in %s (%dx)", e.Name, e.ParentPath, e.Quantity)
	}
	return fmt.Sprintf("Item %s created in %s", e.Name, e.ParentPath)
}

// QuantityChanged records a relative change of an item's quantity.
type QuantityChanged struct {
	ItemID           uuid.UUID `json:"item_id"`
	ItemName         string    `json:"item_name"`
	Delta            int       `json:"delta"`
	PreviousQuantity int       `json:"previous_quantity"`
}

func (QuantityChanged) Kind() Kind { return KindQuantityChanged }
func (QuantityChanged) undoable()  {}
func (e QuantityChanged) Describe() string {
	return fmt.Sprintf("Quantity of %s changed by %+d", e.ItemName, e.Delta)
}
