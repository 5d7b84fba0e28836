package rbac

import (
	"sort"
	"strconv"
)

// Role is a snapshot of a directory role: stable id, unique code, display
// name, and the permissions attached to it. Role order matters: the first
// role in a principal's list is its primary role.
type Role struct {
	ID          int64
	Code        string
	Name        string
	Permissions []Permission
}

// PrincipalView is the computed authorization view returned to callers
// after login or refresh. Role and RoleID come from the primary role and
// are empty when the principal has none; presentation-layer fallbacks
// (such as "guest") are not encoded here.
type PrincipalView struct {
	Role        string         `json:"role"`
	RoleID      string         `json:"roleId"`
	Username    string         `json:"username"`
	Permissions []string       `json:"permissions"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// PermissionStrings returns the sorted, deduplicated union of canonical
// permission strings across the given roles. The result is deterministic:
// any ordering of the same role set yields a byte-identical list.
func PermissionStrings(roles []Role) []string {
	seen := make(map[string]struct{})
	for _, role := range roles {
		for _, perm := range role.Permissions {
			seen[perm.Canonical()] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// BuildView computes a principal view from a role snapshot. Attributes are
// passed through untouched; nil and empty maps are both omitted from the
// JSON form via the struct tag.
func BuildView(username string, roles []Role, attributes map[string]any) PrincipalView {
	view := PrincipalView{
		Username:    username,
		Permissions: PermissionStrings(roles),
		Attributes:  attributes,
	}
	if len(roles) > 0 {
		view.Role = roles[0].Code
		view.RoleID = strconv.FormatInt(roles[0].ID, 10)
	}
	return view
}

// Allowed reports whether any permission in the role set grants
// resource/action in the given namespace. Superuser short-circuiting is
// the caller's job.
func Allowed(roles []Role, resource, action, namespace string) bool {
	for _, role := range roles {
		for _, perm := range role.Permissions {
			if perm.Matches(namespace, resource, action) {
				return true
			}
		}
	}
	return false
}

// AllowedStrings evaluates canonical permission strings, the form embedded
// in access tokens. Strings that fail to parse are ignored (fail closed).
func AllowedStrings(permissions []string, resource, action, namespace string) bool {
	for _, s := range permissions {
		perm, ok := Parse(s)
		if !ok {
			continue
		}
		if perm.Matches(namespace, resource, action) {
			return true
		}
	}
	return false
}
