package rbac

import "testing"

func TestCanonicalForms(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		resource  string
		action    string
		want      string
	}{
		{"pair", "", "menu", "list", "menu:list"},
		{"triple", "system", "menu", "list", "system:menu:list"},
		{"wildcard collapses", "*", "*", "*", "*.*.*"},
		{"partial wildcard stays triple", "*", "menu", "list", "*:menu:list"},
		{"pair with wildcard action", "", "menu", "*", "menu:*"},
		{"whitespace trimmed", " system ", " menu ", " list ", "system:menu:list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.namespace, tt.resource, tt.action).Canonical()
			if got != tt.want {
				t.Fatalf("Canonical() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalIsPure(t *testing.T) {
	p := New("system", "menu", "list")
	first := p.Canonical()
	for i := 0; i < 100; i++ {
		if got := p.Canonical(); got != first {
			t.Fatalf("Canonical() not deterministic: %q then %q", first, got)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{"*.*.*", "menu:list", "menu:*", "system:menu:list", "*:menu:list", "system:*:*"} {
		perm, ok := Parse(s)
		if !ok {
			t.Fatalf("Parse(%q) rejected", s)
		}
		if got := perm.Canonical(); got != s {
			t.Fatalf("Parse(%q).Canonical() = %q", s, got)
		}
	}
}

func TestParseFailsClosed(t *testing.T) {
	for _, s := range []string{"", "menu", "a:b:c:d", ":list", "menu:", "a::c", "*.*"} {
		if _, ok := Parse(s); ok {
			t.Fatalf("Parse(%q) accepted, want rejection", s)
		}
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		perm      string
		namespace string
		resource  string
		action    string
		want      bool
	}{
		{"system:menu:list", "system", "menu", "list", true},
		{"system:menu:*", "system", "menu", "list", true},
		{"*:menu:list", "system", "menu", "list", true},
		{"system:*:list", "system", "menu", "list", true},
		{"*:*:*", "system", "menu", "list", true},
		{"menu:list", "system", "menu", "list", true},
		{"menu:*", "system", "menu", "list", true},
		{"*.*.*", "system", "menu", "list", true},
		{"other:menu:list", "system", "menu", "list", false},
		{"system:menu:create", "system", "menu", "list", false},
		{"system:role:list", "system", "menu", "list", false},
		{"role:list", "system", "menu", "list", false},
		// query with no namespace evaluates as empty-string namespace
		{"menu:list", "", "menu", "list", true},
		{"system:menu:list", "", "menu", "list", false},
		{"*:menu:list", "", "menu", "list", true},
	}

	for _, tt := range tests {
		perm, ok := Parse(tt.perm)
		if !ok {
			t.Fatalf("Parse(%q) rejected", tt.perm)
		}
		if got := perm.Matches(tt.namespace, tt.resource, tt.action); got != tt.want {
			t.Fatalf("%q.Matches(%q, %q, %q) = %v, want %v",
				tt.perm, tt.namespace, tt.resource, tt.action, got, tt.want)
		}
	}
}
