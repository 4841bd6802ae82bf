package tools

import (
	"context"
	"fmt"
	"strings"

	"homebox-voice-mcp/internal/events"
	"homebox-voice-mcp/internal/resolver"
)

const (
	SetCurrentLocationName = "setCurrentLocation"
	CreateLocationName     = "createLocation"
	CreateItemName         = "createItem"
	AdjustQuantityName     = "adjustQuantity"
)

const setCurrentLocationSchema = `{
	"type": "object",
	"properties": {
		"location": {"type": "string", "description": "Slash separated path of the location, e.g. Home/Garage"}
	},
	"required": ["location"]
}`

const createLocationSchema = `{
	"type": "object",
	"properties": {
		"parentLocation": {"type": "string", "description": "Path of the location to create the new one in"},
		"name": {"type": "string", "minLength": 1, "description": "Name of the new location, without slashes"},
		"description": {"type": "string"}
	},
	"required": ["parentLocation", "name"]
}`

const createItemSchema = `{
	"type": "object",
	"properties": {
		"parentLocation": {"type": "string", "description": "Path of the location to put the item in"},
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"quantity": {"type": "integer", "minimum": 0, "default": 1}
	},
	"required": ["parentLocation", "name"]
}`

const adjustQuantitySchema = `{
	"type": "object",
	"properties": {
		"parentLocation": {"type": "string", "description": "Path of the location holding the item"},
		"name": {"type": "string", "minLength": 1},
		"delta": {"type": "integer", "not": {"enum": [0]}, "description": "Amount to add, negative to remove"}
	},
	"required": ["parentLocation", "name", "delta"]
}`

type setCurrentLocationArgs struct {
	Location string `json:"location"`
}

type createLocationArgs struct {
	ParentLocation string `json:"parentLocation"`
	Name           string `json:"name"`
	Description    string `json:"description"`
}

type createItemArgs struct {
	ParentLocation string `json:"parentLocation"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Quantity       *int   `json:"quantity"`
}

type adjustQuantityArgs struct {
	ParentLocation string `json:"parentLocation"`
	Name           string `json:"name"`
	Delta          int    `json:"delta"`
}

func (t *Toolset) setCurrentLocation(ctx context.Context, args setCurrentLocationArgs) (string, error) {
	id, ok, err := t.resolveLocation(ctx, args.Location)
	if err != nil {
		return "", err
	}
	if !ok {
		return notFound(args.Location), nil
	}

	prev := t.session.SetCurrentLocation(id)
	t.session.Record(ctx, events.CurrentLocationSet{
		RequestedPath:      args.Location,
		NewLocationID:      id,
		PreviousLocationID: prev,
	})
	return fmt.Sprintf("Current location set to %s", args.Location), nil
}

func (t *Toolset) createLocation(ctx context.Context, args createLocationArgs) (string, error) {
	if strings.Contains(args.Name, "/") {
		return "New location name must not contain slashes", nil
	}
	if resolver.NormalizeName(args.Name) == "" {
		return "Location name must not be empty", nil
	}

	parentID, ok, err := t.resolveLocation(ctx, args.ParentLocation)
	if err != nil {
		return "", err
	}
	if !ok {
		return notFound(args.ParentLocation), nil
	}

	created, err := t.service.CreateLocation(ctx, args.Name, &parentID, args.Description)
	if err != nil {
		return "", fmt.Errorf("create location %s: %w", args.Name, err)
	}

	t.session.Record(ctx, events.LocationCreated{
		Name:       args.Name,
		ParentPath: args.ParentLocation,
		LocationID: created.ID,
	})
	return fmt.Sprintf("Location %s created below %s", args.Name, args.ParentLocation), nil
}

func (t *Toolset) createItem(ctx context.Context, args createItemArgs) (string, error) {
	if resolver.NormalizeName(args.Name) == "" {
		return "Item name must not be empty", nil
	}
	quantity := 1
	if args.Quantity != nil {
		quantity = *args.Quantity
	}

	parentID, ok, err := t.resolveLocation(ctx, args.ParentLocation)
	if err != nil {
		return "", err
	}
	if !ok {
		return notFound(args.ParentLocation), nil
	}

	created, err := t.service.CreateItem(ctx, args.Name, parentID, args.Description)
	if err != nil {
		return "", fmt.Errorf("create item %s: %w", args.Name, err)
	}
	// The backend creates items with quantity 1. There is no rollback when
	// the follow-up fails; the item stays and no event is recorded.
	if quantity != 1 {
		if err := t.service.SetItemQuantity(ctx, created.ID, quantity); err != nil {
			return "", fmt.Errorf("set quantity of new item %s: %w", args.Name, err)
		}
	}

	t.session.Record(ctx, events.ItemCreated{
		Name:       args.Name,
		ParentPath: args.ParentLocation,
		ItemID:     created.ID,
		Quantity:   quantity,
	})
	return fmt.Sprintf("Item %s added %d times below %s", args.Name, quantity, args.ParentLocation), nil
}

func (t *Toolset) adjustQuantity(ctx context.Context, args adjustQuantityArgs) (string, error) {
	parentID, ok, err := t.resolveLocation(ctx, args.ParentLocation)
	if err != nil {
		return "", err
	}
	if !ok {
		return notFound(args.ParentLocation), nil
	}

	tree, err := t.service.GetLocationTree(ctx, &parentID, true)
	if err != nil {
		return "", fmt.Errorf("fetch items of %s: %w", args.ParentLocation, err)
	}
	node, ok := resolver.FindItem(tree, parentID, args.Name)
	if !ok {
		return fmt.Sprintf("Could not find item %s in %s", args.Name, args.ParentLocation), nil
	}

	item, err := t.service.GetItem(ctx, node.ID)
	if err != nil {
		return "", fmt.Errorf("read item %s: %w", args.Name, err)
	}
	next := item.Quantity + args.Delta
	if next < 0 {
		return fmt.Sprintf("Quantity of %s cannot go below zero (currently %d)", args.Name, item.Quantity), nil
	}

	if err := t.service.SetItemQuantity(ctx, node.ID, next); err != nil {
		return "", fmt.Errorf("set quantity of %s: %w", args.Name, err)
	}

	t.session.Record(ctx, events.QuantityChanged{
		ItemID:           node.ID,
		ItemName:         node.Name,
		Delta:            args.Delta,
		PreviousQuantity: item.Quantity,
	})
	return fmt.Sprintf("Quantity of %s changed by %+d to %d", args.Name, args.Delta, next), nil
}
