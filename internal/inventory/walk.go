package inventory

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Walk visits every node depth-first in pre-order (parent before children,
// children in order) using an explicit stack. Returning false stops the walk.
func Walk(nodes []TreeNode, visit func(TreeNode) bool) {
	stack := make([]TreeNode, 0, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		stack = append(stack, nodes[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Flatten returns every node of the forest in pre-order, roots included.
func Flatten(nodes []TreeNode) []TreeNode {
	out := make([]TreeNode, 0, len(nodes))
	Walk(nodes, func(n TreeNode) bool {
		out = append(out, n)
		return true
	})
	return out
}

// FindByID returns the first node with the given id.
func FindByID(nodes []TreeNode, id uuid.UUID) (TreeNode, bool) {
	var (
		found TreeNode
		ok    bool
	)
	Walk(nodes, func(n TreeNode) bool {
		if n.ID == id {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// LocationNames lists the names of all location nodes in pre-order.
func LocationNames(nodes []TreeNode) []string {
	names := make([]string, 0)
	Walk(nodes, func(n TreeNode) bool {
		if n.IsLocation() {
			names = append(names, n.Name)
		}
		return true
	})
	return names
}

// MinimalJSON renders the forest as nested objects keyed by node name, the
// compact shape handed to the agent as context. Siblings sharing a name
// collapse into one key.
func MinimalJSON(nodes []TreeNode) ([]byte, error) {
	return json.Marshal(minimal(nodes))
}

// minimal builds the nested name map with an explicit stack. A later sibling
// with the same name replaces an earlier one.
func minimal(nodes []TreeNode) map[string]interface{} {
	type frame struct {
		nodes []TreeNode
		into  map[string]interface{}
	}
	root := make(map[string]interface{}, len(nodes))
	stack := []frame{{nodes: nodes, into: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range f.nodes {
			child := make(map[string]interface{}, len(n.Children))
			f.into[n.Name] = child
			if len(n.Children) > 0 {
				stack = append(stack, frame{nodes: n.Children, into: child})
			}
		}
	}
	return root
}
