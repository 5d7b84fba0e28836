package authgate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/adminkit/authgate"
)

func loginAdmin(t *testing.T, env *testEnv) *authgate.LoginResult {
	t.Helper()
	env.seedAdmin(t)
	res, err := env.engine.Login(context.Background(), authgate.Credential{Username: "admin", Password: "admin"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return res
}

func TestRefreshRotatesPair(t *testing.T) {
	env := newTestEnv(t, nil)
	first := loginAdmin(t, env)
	ctx := context.Background()

	second, err := env.engine.Refresh(ctx, first.Tokens.RefreshToken, "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if second.Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}
	if second.Tokens.AccessToken == first.Tokens.AccessToken {
		t.Fatal("access token was not rotated")
	}
	if second.Session.SID == first.Session.SID {
		t.Fatal("session was not rotated")
	}
	if second.User.Username != "admin" {
		t.Fatalf("user = %+v", second.User)
	}

	// The new pair is immediately usable.
	if _, err := env.engine.Authenticate(ctx, second.Tokens.AccessToken); err != nil {
		t.Fatalf("Authenticate(new access): %v", err)
	}
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	env := newTestEnv(t, nil)
	first := loginAdmin(t, env)
	ctx := context.Background()

	if _, err := env.engine.Refresh(ctx, first.Tokens.RefreshToken, ""); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	_, err := env.engine.Refresh(ctx, first.Tokens.RefreshToken, "")
	if !errors.Is(err, authgate.ErrRefreshInvalid) {
		t.Fatalf("replay: err = %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t, nil)
	first := loginAdmin(t, env)

	_, err := env.engine.Refresh(context.Background(), first.Tokens.AccessToken, "")
	if !errors.Is(err, authgate.ErrRefreshInvalid) {
		t.Fatalf("err = %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedAdmin(t)

	_, err := env.engine.Refresh(context.Background(), "not-a-token", "")
	if !errors.Is(err, authgate.ErrRefreshInvalid) {
		t.Fatalf("err = %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshExpiredTokenIsInvalid(t *testing.T) {
	env := newTestEnv(t, func(cfg *authgate.Config) {
		cfg.Token.AccessTTL = time.Second
		cfg.Token.RefreshTTL = 2 * time.Second
	})
	first := loginAdmin(t, env)

	time.Sleep(2100 * time.Millisecond)

	// Expiry is not distinguished from any other decode failure here;
	// ErrTokenExpired is reserved for access tokens.
	_, err := env.engine.Refresh(context.Background(), first.Tokens.RefreshToken, "")
	if !errors.Is(err, authgate.ErrRefreshInvalid) {
		t.Fatalf("err = %v, want ErrRefreshInvalid", err)
	}
	if errors.Is(err, authgate.ErrTokenExpired) {
		t.Fatalf("err = %v, must not be ErrTokenExpired", err)
	}
}

func TestRefreshUsesCallerDeviceID(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedAdmin(t)
	ctx := context.Background()

	first, err := env.engine.Login(ctx, authgate.Credential{Username: "admin", Password: "admin", DeviceID: "laptop"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// The new pair binds to the device the refresh call names, not the
	// one the old token carried.
	second, err := env.engine.Refresh(ctx, first.Tokens.RefreshToken, "phone")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	auth, err := env.engine.Authenticate(ctx, second.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if auth.DeviceID != "phone" {
		t.Fatalf("device = %q, want %q", auth.DeviceID, "phone")
	}

	// An empty device id drops the binding entirely.
	third, err := env.engine.Refresh(ctx, second.Tokens.RefreshToken, "")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	auth, err = env.engine.Authenticate(ctx, third.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if auth.DeviceID != "" {
		t.Fatalf("device = %q, want empty", auth.DeviceID)
	}
}

func TestRefreshDeactivatedAccount(t *testing.T) {
	env := newTestEnv(t, nil)
	first := loginAdmin(t, env)

	// Deactivate the account between login and refresh.
	p, _ := env.dir.FindByID(context.Background(), 1)
	p.IsActive = false
	env.dir.Add(*p)

	_, err := env.engine.Refresh(context.Background(), first.Tokens.RefreshToken, "")
	if !errors.Is(err, authgate.ErrRefreshInvalid) {
		t.Fatalf("err = %v, want ErrRefreshInvalid", err)
	}
}

func TestRefreshLockedAccount(t *testing.T) {
	env := newTestEnv(t, relaxThrottle)
	first := loginAdmin(t, env)
	ctx := context.Background()

	// Lock the account after the pair was issued.
	for i := 0; i < 5; i++ {
		env.engine.Login(ctx, authgate.Credential{Username: "admin", Password: "nope"})
	}

	_, err := env.engine.Refresh(ctx, first.Tokens.RefreshToken, "")
	if !errors.Is(err, authgate.ErrAccountLocked) {
		t.Fatalf("err = %v, want ErrAccountLocked", err)
	}
}

func TestRefreshConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t, nil)
	first := loginAdmin(t, env)
	ctx := context.Background()

	const racers = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.Refresh(ctx, first.Tokens.RefreshToken, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, authgate.ErrRefreshInvalid):
				losers++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 || losers != racers-1 {
		t.Fatalf("winners = %d losers = %d, want 1 and %d", winners, losers, racers-1)
	}
}

func TestRefreshChainEachLinkOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	res := loginAdmin(t, env)
	ctx := context.Background()

	// Walk a rotation chain and then try every retired link.
	used := []string{res.Tokens.RefreshToken}
	for i := 0; i < 3; i++ {
		next, err := env.engine.Refresh(ctx, used[len(used)-1], "")
		if err != nil {
			t.Fatalf("rotation %d: %v", i+1, err)
		}
		used = append(used, next.Tokens.RefreshToken)
	}

	for i, stale := range used[:len(used)-1] {
		if _, err := env.engine.Refresh(ctx, stale, ""); !errors.Is(err, authgate.ErrRefreshInvalid) {
			t.Fatalf("retired link %d: err = %v, want ErrRefreshInvalid", i, err)
		}
	}
}
