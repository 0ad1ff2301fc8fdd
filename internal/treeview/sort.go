// Package treeview is the client side of the workspace: it projects the flat
// todo list of one topic into a forest and applies mutations optimistically,
// undoing them when the server refuses.
package treeview

import (
	"sort"

	"workspace/internal/dto"
	"workspace/internal/model"
)

// SortSiblings orders todos in place: incomplete before completed, then by
// priority rank (P00 first, NONE or unknown last). Equal keys keep their
// input order.
func SortSiblings(todos []dto.Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		return siblingLess(todos[i], todos[j])
	})
}

func siblingLess(a, b dto.Todo) bool {
	ac, bc := a.Status == model.StatusCompleted, b.Status == model.StatusCompleted
	if ac != bc {
		return !ac
	}
	return a.Priority.Rank() < b.Priority.Rank()
}
