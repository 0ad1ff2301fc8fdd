package treeview

import (
	"workspace/internal/dto"
	"workspace/internal/model"
)

// ExpandState remembers which todos are expanded. It is kept apart from the
// todo data and survives refreshes for ids that still exist.
type ExpandState struct {
	flags map[string]bool
}

func NewExpandState() *ExpandState {
	return &ExpandState{flags: make(map[string]bool)}
}

// Sync forgets ids that are gone from flat and expands todos that have
// children but no remembered flag yet.
func (s *ExpandState) Sync(flat []dto.Todo) {
	present := make(map[string]struct{}, len(flat))
	parents := make(map[string]struct{})
	for _, t := range flat {
		present[t.ID] = struct{}{}
		if t.ParentID != nil {
			parents[*t.ParentID] = struct{}{}
		}
	}

	for id := range s.flags {
		if _, ok := present[id]; !ok {
			delete(s.flags, id)
		}
	}
	for id := range parents {
		if _, ok := present[id]; !ok {
			continue
		}
		if _, ok := s.flags[id]; !ok {
			s.flags[id] = true
		}
	}
}

// Toggle flips the remembered flag of id.
func (s *ExpandState) Toggle(id string) {
	s.flags[id] = !s.flags[id]
}

func (s *ExpandState) Set(id string, expanded bool) {
	s.flags[id] = expanded
}

// Expanded returns the remembered flag, ignoring display rules.
func (s *ExpandState) Expanded(id string) bool {
	return s.flags[id]
}

// Visible reports whether n's children are shown. Leaves have nothing to
// show. A completed todo stays collapsed unless it is the one being edited.
func (s *ExpandState) Visible(n *Node, editingID string) bool {
	if len(n.Children) == 0 {
		return false
	}
	if n.Todo.Status == model.StatusCompleted && n.Todo.ID != editingID {
		return false
	}
	return s.flags[n.Todo.ID]
}
