package mcp

import (
	"context"
	"errors"
	"sync"

	"homebox-voice-mcp/internal/homebox"
	"homebox-voice-mcp/internal/inventory"

	"github.com/google/uuid"
)

var (
	homeID   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	garageID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	shelfID  = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	drillID  = uuid.MustParse("00000000-0000-0000-0000-000000000004")
)

// memoryInventory is a tiny in-memory backend that also answers GetLocation.
type memoryInventory struct {
	mu       sync.Mutex
	tree     []inventory.TreeNode
	quantity map[uuid.UUID]int
	fail     error
}

func newMemoryInventory() *memoryInventory {
	return &memoryInventory{
		tree: []inventory.TreeNode{
			{ID: homeID, Name: "Home", Kind: inventory.KindLocation, Children: []inventory.TreeNode{
				{ID: garageID, Name: "Garage", Kind: inventory.KindLocation, Children: []inventory.TreeNode{
					{ID: shelfID, Name: "Shelf", Kind: inventory.KindLocation, Children: []inventory.TreeNode{
						{ID: drillID, Name: "Drill", Kind: inventory.KindItem},
					}},
				}},
			}},
		},
		quantity: map[uuid.UUID]int{drillID: 1},
	}
}

func stripItems(nodes []inventory.TreeNode) []inventory.TreeNode {
	out := make([]inventory.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsLocation() {
			continue
		}
		n.Children = stripItems(n.Children)
		out = append(out, n)
	}
	return out
}

func (m *memoryInventory) GetLocationTree(_ context.Context, rootHint *uuid.UUID, includeItems bool) ([]inventory.TreeNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	nodes := m.tree
	if rootHint != nil {
		root, ok := inventory.FindByID(m.tree, *rootHint)
		if !ok {
			return nil, nil
		}
		nodes = []inventory.TreeNode{root}
	}
	if !includeItems {
		nodes = stripItems(nodes)
	}
	return nodes, nil
}

func (m *memoryInventory) GetLocation(_ context.Context, id uuid.UUID) (homebox.LocationDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		found  homebox.LocationDetails
		parent *inventory.LocationSummary
		ok     bool
	)
	var visit func(nodes []inventory.TreeNode, p *inventory.LocationSummary)
	visit = func(nodes []inventory.TreeNode, p *inventory.LocationSummary) {
		for _, n := range nodes {
			if ok {
				return
			}
			if n.ID == id {
				found = homebox.LocationDetails{ID: n.ID, Name: n.Name}
				parent = p
				ok = true
				return
			}
			visit(n.Children, &inventory.LocationSummary{ID: n.ID, Name: n.Name})
		}
	}
	visit(m.tree, nil)
	if !ok {
		return homebox.LocationDetails{}, errors.New("location not found")
	}
	found.Parent = parent
	return found, nil
}

func (m *memoryInventory) CreateLocation(_ context.Context, name string, _ *uuid.UUID, description string) (inventory.LocationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return inventory.LocationSummary{}, m.fail
	}
	return inventory.LocationSummary{ID: uuid.New(), Name: name, Description: description}, nil
}

func (m *memoryInventory) CreateItem(_ context.Context, name string, _ uuid.UUID, description string) (inventory.ItemSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return inventory.ItemSummary{}, m.fail
	}
	id := uuid.New()
	m.quantity[id] = 1
	return inventory.ItemSummary{ID: id, Name: name, Description: description, Quantity: 1}, nil
}

func (m *memoryInventory) SetItemQuantity(_ context.Context, id uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.quantity[id] = quantity
	return nil
}

func (m *memoryInventory) GetItem(_ context.Context, id uuid.UUID) (inventory.ItemSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quantity[id]
	if !ok {
		return inventory.ItemSummary{}, errors.New("item not found")
	}
	return inventory.ItemSummary{ID: id, Quantity: q}, nil
}
