package ecs

// World is the top-level ECS container. It owns the entity pool, the component
// registry and the parent/child hierarchy. Destruction is immediate: once
// DestroyEntity returns, no store or link refers to the entity any more.
type World struct {
	pool      *EntityPool
	registry  *Registry
	hierarchy *Hierarchy
}

func NewWorld() *World {
	w := &World{
		pool:      NewEntityPool(),
		registry:  NewRegistry(),
		hierarchy: NewHierarchy(),
	}
	w.registry.Register(w.hierarchy)
	return w
}

func (w *World) Pool() *EntityPool      { return w.pool }
func (w *World) Registry() *Registry    { return w.registry }
func (w *World) Hierarchy() *Hierarchy  { return w.hierarchy }
func (w *World) Count() int             { return w.pool.Live() }
func (w *World) Alive(id EntityID) bool { return w.pool.Alive(id) }
func (w *World) CreateEntity() EntityID { return w.pool.Create() }

// DestroyEntity clears id from every registered store and retires it.
// It reports false if id was already destroyed.
func (w *World) DestroyEntity(id EntityID) bool {
	if !w.pool.Alive(id) {
		return false
	}
	w.registry.RemoveAll(id)
	return w.pool.Destroy(id)
}
