package authgate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adminkit/authgate"
	"github.com/adminkit/authgate/rbac"
)

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	env := newTestEnv(t, nil)
	res := loginAdmin(t, env)

	_, err := env.engine.Authenticate(context.Background(), res.Tokens.RefreshToken)
	if !errors.Is(err, authgate.ErrInvalidCredential) {
		t.Fatalf("err = %v, want ErrInvalidCredential", err)
	}
}

func TestAuthenticateExpiredVsInvalid(t *testing.T) {
	env := newTestEnv(t, func(cfg *authgate.Config) {
		cfg.Token.AccessTTL = time.Second
		cfg.Token.RefreshTTL = time.Minute
	})
	res := loginAdmin(t, env)
	ctx := context.Background()

	time.Sleep(1100 * time.Millisecond)

	_, err := env.engine.Authenticate(ctx, res.Tokens.AccessToken)
	if !errors.Is(err, authgate.ErrTokenExpired) {
		t.Fatalf("expired: err = %v, want ErrTokenExpired", err)
	}

	_, err = env.engine.Authenticate(ctx, "not-a-token")
	if !errors.Is(err, authgate.ErrInvalidCredential) {
		t.Fatalf("garbage: err = %v, want ErrInvalidCredential", err)
	}
}

func TestAuthenticateRevocationCheck(t *testing.T) {
	env := newTestEnv(t, func(cfg *authgate.Config) {
		cfg.CheckAccessRevocation = true
	})
	res := loginAdmin(t, env)
	ctx := context.Background()

	auth, err := env.engine.Authenticate(ctx, res.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	// Blacklist the access jti directly, as an admin force-logout would.
	env.mr.Set("bl:"+auth.JTI, "1")

	_, err = env.engine.Authenticate(ctx, res.Tokens.AccessToken)
	if !errors.Is(err, authgate.ErrInvalidCredential) {
		t.Fatalf("revoked: err = %v, want ErrInvalidCredential", err)
	}
}

func TestIsAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	super := &authgate.Principal{IsSuperuser: true}
	if !env.engine.IsAllowed(super, "anything", "at-all", "anywhere") {
		t.Fatal("superuser denied")
	}

	editor := &authgate.Principal{
		Roles: []authgate.Role{{
			Code: "editor",
			Permissions: []rbac.Permission{
				rbac.New("", "article", "read"),
				rbac.New("cms", "media", "*"),
			},
		}},
	}
	cases := []struct {
		resource, action, namespace string
		want                        bool
	}{
		{"article", "read", "", true},
		{"article", "read", "cms", true}, // pair grants ignore namespace
		{"article", "write", "", false},
		{"media", "upload", "cms", true},
		{"media", "upload", "other", false},
	}
	for _, tc := range cases {
		if got := env.engine.IsAllowed(editor, tc.resource, tc.action, tc.namespace); got != tc.want {
			t.Errorf("IsAllowed(%q, %q, %q) = %v, want %v", tc.resource, tc.action, tc.namespace, got, tc.want)
		}
	}

	if env.engine.IsAllowed(nil, "article", "read", "") {
		t.Fatal("nil principal allowed")
	}
}

func TestPrincipalView(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedEditor(t)
	ctx := context.Background()

	view, err := env.engine.PrincipalView(ctx, 2)
	if err != nil {
		t.Fatalf("PrincipalView: %v", err)
	}
	if view.Username != "editor" || view.Role != "editor" || view.RoleID != "2" {
		t.Fatalf("view = %+v", view)
	}

	if _, err := env.engine.PrincipalView(ctx, 404); !errors.Is(err, authgate.ErrPrincipalNotFound) {
		t.Fatalf("err = %v, want ErrPrincipalNotFound", err)
	}
}
