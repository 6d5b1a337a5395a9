package engine

// Registry maps unit ids to units, preserving insertion order.
//
// The registry is the only place units live. It hands out copies so callers
// can never mutate a unit behind the engine's back; in-place changes go
// through Update or each.
type Registry struct {
	units []*Unit
	index map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Add appends a unit. Returns false if the id is already present.
func (r *Registry) Add(u Unit) bool {
	if _, exists := r.index[u.ID]; exists {
		return false
	}
	r.index[u.ID] = len(r.units)
	r.units = append(r.units, &u)
	return true
}

// Remove deletes the unit with the given id and returns it.
func (r *Registry) Remove(id string) (Unit, bool) {
	i, ok := r.index[id]
	if !ok {
		return Unit{}, false
	}
	removed := *r.units[i]

	copy(r.units[i:], r.units[i+1:])
	r.units[len(r.units)-1] = nil
	r.units = r.units[:len(r.units)-1]

	delete(r.index, id)
	for j := i; j < len(r.units); j++ {
		r.index[r.units[j].ID] = j
	}
	return removed, true
}

// Get returns a copy of the unit with the given id.
func (r *Registry) Get(id string) (Unit, bool) {
	i, ok := r.index[id]
	if !ok {
		return Unit{}, false
	}
	return *r.units[i], true
}

// Update applies fn to the stored unit. Returns false if the id is unknown.
func (r *Registry) Update(id string, fn func(*Unit)) bool {
	i, ok := r.index[id]
	if !ok {
		return false
	}
	fn(r.units[i])
	return true
}

// List returns copies of all units in insertion order.
func (r *Registry) List() []Unit {
	out := make([]Unit, len(r.units))
	for i, u := range r.units {
		out[i] = *u
	}
	return out
}

// FindByName returns the earliest-added unit whose name matches exactly.
func (r *Registry) FindByName(name string) (Unit, bool) {
	for _, u := range r.units {
		if u.Name == name {
			return *u, true
		}
	}
	return Unit{}, false
}

// Len returns the number of units.
func (r *Registry) Len() int {
	return len(r.units)
}

// Clear removes every unit.
func (r *Registry) Clear() {
	r.units = nil
	r.index = make(map[string]int)
}

func (r *Registry) each(fn func(*Unit)) {
	for _, u := range r.units {
		fn(u)
	}
}
