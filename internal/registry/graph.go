package registry

import (
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/serviceid"
)

// checkAcyclic verifies that adding or updating a service with the given
// id and proposed implied_dependencies would not close a cycle in the
// implied-dependency graph. Unlike the static, hand-curated graph this
// registry's ancestor assumed small and cycle-free by construction, Rorg
// accepts services at runtime over RPC, so the check is performed on
// every create/update instead of left to operator discipline.
func (r *Registry) checkAcyclic(id serviceid.ServiceId, impliedDeps []serviceid.ServiceId) error {
	edges := make(map[string][]serviceid.ServiceId, len(r.services)+1)
	for _, svc := range r.services {
		if svc.ID().Key() == id.Key() {
			continue
		}
		edges[svc.ID().Key()] = svc.Options().ImpliedDependencies
	}
	edges[id.Key()] = impliedDeps

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(edges))

	var visit func(key string) error
	visit = func(key string) error {
		switch state[key] {
		case done:
			return nil
		case visiting:
			return rorgerr.ServiceUnsupportedOptionsf(
				"implied_dependencies for %s would introduce a dependency cycle through %s", id, key)
		}
		state[key] = visiting
		for _, dep := range edges[key] {
			if err := visit(dep.Key()); err != nil {
				return err
			}
		}
		state[key] = done
		return nil
	}

	return visit(id.Key())
}
