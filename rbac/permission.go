package rbac

import "strings"

// WildcardToken is the canonical form of the super permission. It is
// deliberately dot-separated so it can never collide with the
// colon-separated pair/triple forms.
const WildcardToken = "*.*.*"

// Kind discriminates the permission shapes.
type Kind uint8

const (
	// KindPair is a resource:action permission with no namespace.
	KindPair Kind = iota
	// KindTriple is a namespace:resource:action permission.
	KindTriple
	// KindWildcard is the super permission matching everything.
	KindWildcard
)

// Permission is an immutable permission value. The zero value is an empty
// pair that matches nothing useful; construct values through [New],
// [Wildcard], or [Parse].
type Permission struct {
	kind      Kind
	namespace string
	resource  string
	action    string
}

// New builds a permission from its raw parts. An empty namespace yields a
// pair; the literal triple *,*,* collapses into the wildcard.
func New(namespace, resource, action string) Permission {
	namespace = strings.TrimSpace(namespace)
	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(action)

	if namespace == "*" && resource == "*" && action == "*" {
		return Permission{kind: KindWildcard}
	}
	if namespace == "" {
		return Permission{kind: KindPair, resource: resource, action: action}
	}
	return Permission{kind: KindTriple, namespace: namespace, resource: resource, action: action}
}

// Wildcard returns the super permission.
func Wildcard() Permission {
	return Permission{kind: KindWildcard}
}

// Parse converts a canonical permission string back into a typed value.
// Any shape other than the wildcard token, resource:action, or
// namespace:resource:action is rejected (fail closed).
func Parse(s string) (Permission, bool) {
	if s == WildcardToken {
		return Wildcard(), true
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Permission{}, false
		}
		return New("", parts[0], parts[1]), true
	case 3:
		if parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return Permission{}, false
		}
		return New(parts[0], parts[1], parts[2]), true
	default:
		return Permission{}, false
	}
}

// Kind reports the permission shape.
func (p Permission) Kind() Kind { return p.kind }

// Canonical returns the deterministic string form: the wildcard token,
// resource:action, or namespace:resource:action.
func (p Permission) Canonical() string {
	switch p.kind {
	case KindWildcard:
		return WildcardToken
	case KindTriple:
		return p.namespace + ":" + p.resource + ":" + p.action
	default:
		return p.resource + ":" + p.action
	}
}

// Matches reports whether this permission grants the queried
// resource/action in the queried namespace. A query without a namespace is
// evaluated as the empty-string namespace. Pair permissions never consult
// the query namespace; triples require an exact or wildcard namespace
// match.
func (p Permission) Matches(namespace, resource, action string) bool {
	switch p.kind {
	case KindWildcard:
		return true
	case KindPair:
		return matchPart(p.resource, resource) && matchPart(p.action, action)
	case KindTriple:
		return matchPart(p.namespace, namespace) &&
			matchPart(p.resource, resource) &&
			matchPart(p.action, action)
	default:
		return false
	}
}

func matchPart(granted, queried string) bool {
	return granted == "*" || granted == queried
}
