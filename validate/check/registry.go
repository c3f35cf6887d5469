package check

// Registry is an ordered collection of checks. Registration order is
// execution order is report order. Registering the same check twice is
// legal and yields two report entries.
type Registry struct {
	checks []Check
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(c Check) {
	r.checks = append(r.checks, c)
}

// Checks returns the registered checks in order. The slice is a copy;
// callers cannot reorder the registry through it.
func (r *Registry) Checks() []Check {
	out := make([]Check, len(r.checks))
	copy(out, r.checks)
	return out
}

func (r *Registry) Len() int {
	return len(r.checks)
}
