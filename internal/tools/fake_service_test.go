package tools

import (
	"context"
	"fmt"
	"sync"

	"homebox-voice-mcp/internal/inventory"

	"github.com/google/uuid"
)

// fakeService is an in-memory inventory that counts every backend call.
type fakeService struct {
	mu       sync.Mutex
	tree     []inventory.TreeNode
	quantity map[uuid.UUID]int

	treeCalls       int
	createLocCalls  int
	createItemCalls int
	setQtyCalls     int
	getItemCalls    int

	lastParent   *uuid.UUID
	lastLocation uuid.UUID
	lastQuantity int

	treeErr   error
	createErr error
	setQtyErr error
}

func newFakeService(tree []inventory.TreeNode) *fakeService {
	return &fakeService{tree: tree, quantity: make(map[uuid.UUID]int)}
}

func (f *fakeService) mutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createLocCalls + f.createItemCalls + f.setQtyCalls
}

func (f *fakeService) backendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.treeCalls + f.createLocCalls + f.createItemCalls + f.setQtyCalls + f.getItemCalls
}

func (f *fakeService) GetLocationTree(_ context.Context, rootHint *uuid.UUID, includeItems bool) ([]inventory.TreeNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treeCalls++
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	nodes := f.tree
	if rootHint != nil {
		root, ok := inventory.FindByID(f.tree, *rootHint)
		if !ok {
			return nil, nil
		}
		nodes = []inventory.TreeNode{root}
	}
	if !includeItems {
		nodes = withoutItems(nodes)
	}
	return nodes, nil
}

func withoutItems(nodes []inventory.TreeNode) []inventory.TreeNode {
	out := make([]inventory.TreeNode, 0, len(nodes))
	for _, n := range nodes {
		if !n.IsLocation() {
			continue
		}
		n.Children = withoutItems(n.Children)
		out = append(out, n)
	}
	return out
}

func (f *fakeService) CreateLocation(_ context.Context, name string, parentID *uuid.UUID, description string) (inventory.LocationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createLocCalls++
	f.lastParent = parentID
	if f.createErr != nil {
		return inventory.LocationSummary{}, f.createErr
	}
	return inventory.LocationSummary{ID: uuid.New(), Name: name, Description: description}, nil
}

func (f *fakeService) CreateItem(_ context.Context, name string, locationID uuid.UUID, description string) (inventory.ItemSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createItemCalls++
	f.lastLocation = locationID
	if f.createErr != nil {
		return inventory.ItemSummary{}, f.createErr
	}
	id := uuid.New()
	f.quantity[id] = 1
	return inventory.ItemSummary{ID: id, Name: name, Description: description, Quantity: 1}, nil
}

func (f *fakeService) SetItemQuantity(_ context.Context, id uuid.UUID, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setQtyCalls++
	f.lastQuantity = quantity
	if f.setQtyErr != nil {
		return f.setQtyErr
	}
	f.quantity[id] = quantity
	return nil
}

func (f *fakeService) GetItem(_ context.Context, id uuid.UUID) (inventory.ItemSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getItemCalls++
	q, ok := f.quantity[id]
	if !ok {
		return inventory.ItemSummary{}, fmt.Errorf("item %s not found", id)
	}
	return inventory.ItemSummary{ID: id, Quantity: q}, nil
}

type recordedTrace struct {
	eventType string
	sessionID string
	data      interface{}
}

type fakeRecorder struct {
	traces []recordedTrace
}

func (r *fakeRecorder) Log(eventType, sessionID string, data interface{}) {
	r.traces = append(r.traces, recordedTrace{eventType, sessionID, data})
}
