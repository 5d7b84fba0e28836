package rbac

import (
	"math/rand"
	"reflect"
	"testing"
)

func rolesFixture() []Role {
	return []Role{
		{ID: 2, Code: "auditor", Name: "Auditor", Permissions: []Permission{
			New("system", "audit", "list"),
			New("", "menu", "list"),
		}},
		{ID: 1, Code: "admin", Name: "Administrator", Permissions: []Permission{
			New("system", "menu", "list"),
			New("", "menu", "list"), // duplicate across roles
			New("system", "user", "*"),
		}},
	}
}

func TestPermissionStringsSortedAndDeduplicated(t *testing.T) {
	want := []string{"menu:list", "system:audit:list", "system:menu:list", "system:user:*"}
	got := PermissionStrings(rolesFixture())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("PermissionStrings() = %v, want %v", got, want)
	}
}

func TestBuildViewDeterministicUnderReordering(t *testing.T) {
	roles := rolesFixture()
	base := BuildView("alice", roles, nil)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]Role, len(roles))
		copy(shuffled, roles)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		view := BuildView("alice", shuffled, nil)
		if !reflect.DeepEqual(view.Permissions, base.Permissions) {
			t.Fatalf("permission list changed under reordering: %v vs %v", view.Permissions, base.Permissions)
		}
	}
}

func TestBuildViewPrimaryRole(t *testing.T) {
	view := BuildView("alice", rolesFixture(), map[string]any{"dept": "ops"})
	if view.Role != "auditor" || view.RoleID != "2" {
		t.Fatalf("primary role = %q/%q, want auditor/2", view.Role, view.RoleID)
	}
	if view.Username != "alice" {
		t.Fatalf("username = %q", view.Username)
	}
	if view.Attributes["dept"] != "ops" {
		t.Fatalf("attributes not passed through: %v", view.Attributes)
	}
}

func TestBuildViewNoRoles(t *testing.T) {
	view := BuildView("bob", nil, nil)
	if view.Role != "" || view.RoleID != "" {
		t.Fatalf("expected empty role for principal without roles, got %q/%q", view.Role, view.RoleID)
	}
	if len(view.Permissions) != 0 {
		t.Fatalf("expected no permissions, got %v", view.Permissions)
	}
}

func TestAllowed(t *testing.T) {
	roles := rolesFixture()

	if !Allowed(roles, "menu", "list", "system") {
		t.Fatal("expected system:menu:list to be allowed")
	}
	if !Allowed(roles, "user", "delete", "system") {
		t.Fatal("expected system:user:* to cover user delete")
	}
	if Allowed(roles, "role", "delete", "system") {
		t.Fatal("expected role delete to be denied")
	}
}

func TestAllowedStrings(t *testing.T) {
	perms := []string{"system:menu:list", "menu:*", "not a permission"}

	if !AllowedStrings(perms, "menu", "list", "system") {
		t.Fatal("expected allow from triple")
	}
	if !AllowedStrings(perms, "menu", "create", "") {
		t.Fatal("expected allow from pair wildcard action")
	}
	if AllowedStrings(perms, "user", "list", "system") {
		t.Fatal("expected deny")
	}
	if AllowedStrings([]string{"garbage", "a:b:c:d"}, "menu", "list", "system") {
		t.Fatal("unparseable permissions must fail closed")
	}
	if !AllowedStrings([]string{"*.*.*"}, "anything", "at-all", "anywhere") {
		t.Fatal("wildcard token must allow everything")
	}
}
