package treeview

import (
	"sort"

	"workspace/internal/dto"
)

// Node is one todo in the projected forest.
type Node struct {
	Todo     dto.Todo
	Children []*Node
	Depth    int
}

// BuildForest groups a flat list by parent id. Roots are todos without a
// parent, plus any todo whose parent is not in the list or that sits on a
// parent cycle, so every entry appears exactly once. Siblings are sorted
// with SortSiblings at every level.
func BuildForest(flat []dto.Todo) []*Node {
	present := make(map[string]struct{}, len(flat))
	for _, t := range flat {
		present[t.ID] = struct{}{}
	}

	children := make(map[string][]dto.Todo)
	var roots []dto.Todo
	for _, t := range flat {
		if t.ParentID == nil {
			roots = append(roots, t)
			continue
		}
		if _, ok := present[*t.ParentID]; !ok {
			roots = append(roots, t)
			continue
		}
		children[*t.ParentID] = append(children[*t.ParentID], t)
	}

	visited := make(map[string]bool, len(flat))
	forest := grow(roots, children, visited)

	// Whatever is left hangs off a cycle. Promote the first member found in
	// input order and walk again until everything is placed.
	for _, t := range flat {
		if visited[t.ID] {
			continue
		}
		forest = append(forest, grow([]dto.Todo{t}, children, visited)...)
	}
	sortNodes(forest)
	return forest
}

func grow(roots []dto.Todo, children map[string][]dto.Todo, visited map[string]bool) []*Node {
	out := make([]*Node, 0, len(roots))
	var stack []*Node

	for _, t := range roots {
		if visited[t.ID] {
			continue
		}
		visited[t.ID] = true
		n := &Node{Todo: t}
		out = append(out, n)
		stack = append(stack, n)
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		kids := append([]dto.Todo(nil), children[top.Todo.ID]...)
		SortSiblings(kids)
		for _, c := range kids {
			if visited[c.ID] {
				continue
			}
			visited[c.ID] = true
			child := &Node{Todo: c, Depth: top.Depth + 1}
			top.Children = append(top.Children, child)
			stack = append(stack, child)
		}
	}
	return out
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return siblingLess(nodes[i].Todo, nodes[j].Todo)
	})
}

// Walk visits nodes depth first in display order. Returning false from fn
// skips the node's children.
func Walk(forest []*Node, fn func(n *Node) bool) {
	stack := make([]*Node, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Descendants returns every transitive child of id in the flat list, found
// with a worklist. id itself is not included.
func Descendants(flat []dto.Todo, id string) []string {
	children := make(map[string][]string)
	for _, t := range flat {
		if t.ParentID != nil {
			children[*t.ParentID] = append(children[*t.ParentID], t.ID)
		}
	}

	seen := map[string]bool{id: true}
	var out []string
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}
