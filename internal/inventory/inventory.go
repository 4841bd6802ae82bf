// Package inventory defines the location tree model and the contracts of the
// inventory backend the tool layer talks to.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NodeKind distinguishes locations from items in a location tree.
type NodeKind string

const (
	KindLocation NodeKind = "location"
	KindItem     NodeKind = "item"
)

// TreeNode is one node of a location tree snapshot. Items never have children.
type TreeNode struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Kind     NodeKind   `json:"type"`
	Children []TreeNode `json:"children,omitempty"`
}

// IsLocation reports whether the node is a location.
func (n TreeNode) IsLocation() bool { return n.Kind == KindLocation }

// UnmarshalJSON accepts the backend's lower-case type names and rejects unknown kinds.
func (k *NodeKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch NodeKind(raw) {
	case KindLocation, KindItem:
		*k = NodeKind(raw)
		return nil
	default:
		return fmt.Errorf("unknown tree node type %q", raw)
	}
}

// LocationSummary is what the backend returns after creating a location.
type LocationSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
}

// ItemSummary is what the backend returns for created or fetched items.
type ItemSummary struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Quantity    int              `json:"quantity"`
	Location    *LocationSummary `json:"location,omitempty"`
}

// TreeProvider returns the current location tree, optionally rooted at rootHint.
type TreeProvider interface {
	GetLocationTree(ctx context.Context, rootHint *uuid.UUID, includeItems bool) ([]TreeNode, error)
}

// Backend performs inventory mutations. Errors are transport or authorization
// failures and are never recovered by callers.
type Backend interface {
	CreateLocation(ctx context.Context, name string, parentID *uuid.UUID, description string) (LocationSummary, error)
	CreateItem(ctx context.Context, name string, locationID uuid.UUID, description string) (ItemSummary, error)
	SetItemQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	GetItem(ctx context.Context, id uuid.UUID) (ItemSummary, error)
}

// Service is the full collaborator surface the tools need.
type Service interface {
	TreeProvider
	Backend
}
