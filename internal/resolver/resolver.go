// Package resolver maps free-form location paths onto nodes of a location tree snapshot.
//
// Paths are slash separated and matched case and whitespace insensitive:
// "Home / basement/TOP shelf" and "home/Basement/TopShelf" name the same node.
// A single segment that matches exactly one node anywhere in the tree resolves
// to that node without its ancestors.
package resolver

import (
	"strings"
	"unicode"

	"homebox-voice-mcp/internal/inventory"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Path is a normalized location path. It never contains empty segments.
type Path []string

// Normalize splits raw on '/', strips every whitespace rune from each piece,
// lowercases it and drops pieces that end up empty.
func Normalize(raw string) Path {
	pieces := strings.Split(raw, "/")
	path := make(Path, 0, len(pieces))
	for _, piece := range pieces {
		if seg := NormalizeName(piece); seg != "" {
			path = append(path, seg)
		}
	}
	return path
}

// NormalizeName folds a single name the same way path segments are folded.
func NormalizeName(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	// Casers carry state, so one per call.
	return cases.Lower(language.Und).String(stripped)
}

func nameMatches(node inventory.TreeNode, segment string) bool {
	return strings.EqualFold(NormalizeName(node.Name), segment)
}

// Resolve returns the id of the node path designates within tree. When rootHint
// is set only the subtree rooted at that node is searched.
func Resolve(path Path, tree []inventory.TreeNode, rootHint *uuid.UUID) (uuid.UUID, bool) {
	if len(path) == 0 {
		return uuid.Nil, false
	}

	space := tree
	if rootHint != nil {
		root, ok := inventory.FindByID(tree, *rootHint)
		if !ok {
			return uuid.Nil, false
		}
		space = []inventory.TreeNode{root}
	}

	if len(path) == 1 {
		if id, ok := uniqueByName(space, path[0]); ok {
			return id, true
		}
		// Zero or several matches fall through to the structural walk.
	}

	return descend(path, space)
}

// uniqueByName looks at every node, items included, and succeeds only when
// exactly one carries the segment as its name.
func uniqueByName(space []inventory.TreeNode, segment string) (uuid.UUID, bool) {
	var (
		match uuid.UUID
		count int
	)
	inventory.Walk(space, func(n inventory.TreeNode) bool {
		if nameMatches(n, segment) {
			match = n.ID
			count++
		}
		return count < 2
	})
	if count != 1 {
		return uuid.Nil, false
	}
	return match, true
}

// descend walks one level per segment, taking the first location child whose
// name matches. There is no backtracking.
func descend(path Path, level []inventory.TreeNode) (uuid.UUID, bool) {
	for i, segment := range path {
		node, ok := firstLocation(level, segment)
		if !ok {
			return uuid.Nil, false
		}
		if i == len(path)-1 {
			return node.ID, true
		}
		level = node.Children
	}
	return uuid.Nil, false
}

func firstLocation(level []inventory.TreeNode, segment string) (inventory.TreeNode, bool) {
	for _, n := range level {
		if n.IsLocation() && nameMatches(n, segment) {
			return n, true
		}
	}
	return inventory.TreeNode{}, false
}

// FindItem returns the first item directly inside the location with id parent
// whose name matches name after normalization.
func FindItem(tree []inventory.TreeNode, parent uuid.UUID, name string) (inventory.TreeNode, bool) {
	loc, ok := inventory.FindByID(tree, parent)
	if !ok {
		return inventory.TreeNode{}, false
	}
	want := NormalizeName(name)
	if want == "" {
		return inventory.TreeNode{}, false
	}
	for _, child := range loc.Children {
		if child.Kind == inventory.KindItem && nameMatches(child, want) {
			return child, true
		}
	}
	return inventory.TreeNode{}, false
}
