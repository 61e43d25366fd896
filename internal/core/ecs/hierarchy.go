package ecs

import "slices"

// Hierarchy stores parent/child links as explicit id-to-id maps. A child has
// at most one parent. It is Removable: destroying an entity unlinks it from its
// parent and orphans its own children.
type Hierarchy struct {
	parent   map[EntityID]EntityID
	children map[EntityID]map[EntityID]struct{}
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		parent:   make(map[EntityID]EntityID, 64),
		children: make(map[EntityID]map[EntityID]struct{}, 4),
	}
}

// Attach makes child a child of parent, moving it if it had another parent.
func (h *Hierarchy) Attach(parent, child EntityID) {
	if old, ok := h.parent[child]; ok {
		if old == parent {
			return
		}
		h.unlink(old, child)
	}
	set, ok := h.children[parent]
	if !ok {
		set = make(map[EntityID]struct{}, 16)
		h.children[parent] = set
	}
	set[child] = struct{}{}
	h.parent[child] = parent
}

// Detach removes child from parent. It reports whether the link existed.
func (h *Hierarchy) Detach(parent, child EntityID) bool {
	if p, ok := h.parent[child]; !ok || p != parent {
		return false
	}
	h.unlink(parent, child)
	return true
}

func (h *Hierarchy) unlink(parent, child EntityID) {
	delete(h.parent, child)
	if set, ok := h.children[parent]; ok {
		delete(set, child)
	}
}

// Parent returns child's parent, if any.
func (h *Hierarchy) Parent(child EntityID) (EntityID, bool) {
	p, ok := h.parent[child]
	return p, ok
}

// Children returns parent's children in ascending order.
func (h *Hierarchy) Children(parent EntityID) []EntityID {
	set := h.children[parent]
	out := make([]EntityID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (h *Hierarchy) ChildCount(parent EntityID) int {
	return len(h.children[parent])
}

// Remove drops every link involving id.
func (h *Hierarchy) Remove(id EntityID) {
	if p, ok := h.parent[id]; ok {
		h.unlink(p, id)
	}
	for child := range h.children[id] {
		delete(h.parent, child)
	}
	delete(h.children, id)
}
