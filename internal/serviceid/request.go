package serviceid

// ImpliedUUID is the reserved RequestId uuid a service uses for its own
// request on its implied_dependencies set.
const ImpliedUUID = "__IMPLIED"

// RequestId names one outstanding claim: who issued it (by ServiceId) and
// an opaque uuid, unique per issuer. The registry never mints uuids
// itself; callers (or a service acting on its own behalf) do.
type RequestId struct {
	Issuer ServiceId `yaml:"issuer"`
	UUID   string    `yaml:"uuid"`
}

// Key returns a canonical string usable as a map key / set element.
func (r RequestId) Key() string {
	return r.Issuer.Key() + "#" + r.UUID
}

func (r RequestId) Equal(other RequestId) bool {
	return r.Key() == other.Key()
}

// Request bundles a RequestId with the set of ServiceIds it claims live.
// Targets are deduplicated by the caller before being stored.
type Request struct {
	ID      RequestId   `yaml:"id"`
	Targets []ServiceId `yaml:"targets"`
}

// DedupedTargets returns Targets with duplicate ServiceIds removed,
// preserving first-seen order.
func (r Request) DedupedTargets() []ServiceId {
	seen := make(map[string]bool, len(r.Targets))
	out := make([]ServiceId, 0, len(r.Targets))
	for _, t := range r.Targets {
		k := t.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}
