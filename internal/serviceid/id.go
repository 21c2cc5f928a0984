// Package serviceid defines ServiceId, RequestId, and Request: the
// immutable value types every other Rorg package threads through.
package serviceid

import (
	"regexp"
	"strings"

	"github.com/cogrob/rorg/internal/rorgerr"
	"gopkg.in/yaml.v3"
)

// tokenPattern matches a single namespace/name token: [A-Za-z0-9_-]+.
const tokenPattern = `[A-Za-z0-9_-]+`

var idPattern = regexp.MustCompile(`^((?:` + tokenPattern + `/)*` + tokenPattern + `):(` + tokenPattern + `)$`)

// BuiltinNamespace marks namespaces owned by Rorg itself rather than a
// client. Any ServiceId whose first namespace token is this value is
// system-owned.
const BuiltinNamespace = "__builtin"

// OperatorName is the name half of the reserved operator ServiceId, the
// proxy identity external actors issue requests as.
const OperatorName = "__operator"

// ServiceId is an ordered namespace path plus a name. Two ServiceIds are
// equal iff their namespace slices and names match; this makes ServiceId
// usable as a map key once flattened to its canonical string (ID.Key()).
type ServiceId struct {
	Namespace []string
	Name      string
}

// Operator is the reserved ServiceId for the built-in external-actor proxy.
func Operator() ServiceId {
	return ServiceId{Namespace: []string{BuiltinNamespace}, Name: OperatorName}
}

// Parse reads the canonical text form "ns0/ns1/.../nsK:name" into a
// ServiceId. It fails with InvalidServiceId on any malformed input:
// empty namespace, empty name, or characters outside [A-Za-z0-9_-].
func Parse(s string) (ServiceId, error) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return ServiceId{}, rorgerr.InvalidServiceIDf("invalid service id %q", s)
	}
	return ServiceId{
		Namespace: strings.Split(m[1], "/"),
		Name:      m[2],
	}, nil
}

// MustParse is Parse but panics on error; reserved for compile-time-known
// constants such as tests and the built-in operator id.
func MustParse(s string) ServiceId {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String renders the canonical text form; Parse(id.String()) round-trips
// to an equal ServiceId for every valid id (property P1).
func (id ServiceId) String() string {
	return strings.Join(id.Namespace, "/") + ":" + id.Name
}

// Key returns the canonical string form, suitable as a map key.
func (id ServiceId) Key() string { return id.String() }

// Equal reports whether two ServiceIds name the same service.
func (id ServiceId) Equal(other ServiceId) bool {
	return id.Key() == other.Key()
}

// IsBuiltin reports whether this id's namespace is system-owned, i.e. its
// first namespace token is BuiltinNamespace.
func (id ServiceId) IsBuiltin() bool {
	return len(id.Namespace) > 0 && id.Namespace[0] == BuiltinNamespace
}

// MarshalYAML renders the canonical text form so ServiceState persists a
// ServiceId as a single scalar rather than a nested namespace/name map.
func (id ServiceId) MarshalYAML() (interface{}, error) {
	return id.String(), nil
}

// UnmarshalYAML parses the canonical text form back into a ServiceId.
func (id *ServiceId) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
