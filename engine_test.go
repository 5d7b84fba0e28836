package authgate_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/adminkit/authgate"
	"github.com/adminkit/authgate/directory"
	"github.com/adminkit/authgate/internal/audit"
	"github.com/adminkit/authgate/password"
	"github.com/adminkit/authgate/rbac"
)

// testPassword keeps hashing cheap across the suite.
var testPassword = password.Config{
	Memory:      8 * 1024,
	Time:        1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   16,
}

type testEnv struct {
	engine *authgate.Engine
	mr     *miniredis.Miniredis
	dir    *directory.Memory
	sink   *audit.ChannelSink
	now    time.Time
}

func (env *testEnv) advance(d time.Duration) {
	env.now = env.now.Add(d)
	env.mr.FastForward(d)
}

func newTestEnv(t *testing.T, mutate func(*authgate.Config)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := authgate.DefaultConfig()
	cfg.Token.SigningKey = []byte("test-secret-test-secret-test-1234")
	cfg.Password = testPassword
	if mutate != nil {
		mutate(&cfg)
	}

	env := &testEnv{
		mr:   mr,
		dir:  directory.NewMemory(),
		sink: audit.NewChannelSink(64),
		now:  time.Now(),
	}

	engine, err := authgate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(env.dir).
		WithAuditSink(env.sink).
		WithClock(func() time.Time { return env.now }).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	env.engine = engine
	return env
}

func hashPassword(t *testing.T, plaintext string) string {
	t.Helper()
	hasher, err := password.NewArgon2(testPassword)
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	hash, err := hasher.Hash(plaintext)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	return hash
}

// seedAdmin adds the stock admin account: superuser, admin role, full
// wildcard grant.
func (env *testEnv) seedAdmin(t *testing.T) {
	t.Helper()
	env.dir.Add(authgate.Principal{
		ID:           1,
		Username:     "admin",
		FullName:     "Administrator",
		PasswordHash: hashPassword(t, "admin"),
		IsActive:     true,
		IsSuperuser:  true,
		Roles: []authgate.Role{{
			ID: 1, Code: "admin", Name: "Administrator",
			Permissions: []rbac.Permission{rbac.Wildcard()},
		}},
	})
}

func (env *testEnv) seedEditor(t *testing.T) {
	t.Helper()
	env.dir.Add(authgate.Principal{
		ID:           2,
		Username:     "editor",
		PasswordHash: hashPassword(t, "edit-me-now"),
		IsActive:     true,
		Roles: []authgate.Role{{
			ID: 2, Code: "editor", Name: "Editor",
			Permissions: []rbac.Permission{
				rbac.New("", "article", "read"),
				rbac.New("", "article", "write"),
				rbac.New("cms", "media", "*"),
			},
		}},
	})
}

// drainAudit collects everything the sink has received so far.
func (env *testEnv) drainAudit() []audit.Event {
	var events []audit.Event
	deadline := time.After(time.Second)
	for {
		select {
		case event := <-env.sink.Events():
			events = append(events, event)
		case <-deadline:
			return events
		default:
			// Give the dispatcher goroutine a beat to flush.
			time.Sleep(5 * time.Millisecond)
			select {
			case event := <-env.sink.Events():
				events = append(events, event)
			default:
				return events
			}
		}
	}
}
