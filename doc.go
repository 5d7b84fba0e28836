// Package authgate is the authentication and authorization core for an
// admin console backend.
//
// The [Engine] owns four flows: Login verifies a credential under a
// per-username throttle and an automatic lockout policy, Refresh
// rotates a single-use refresh token, Logout records the sign-out, and
// Authenticate validates access tokens for request middleware.
// Authorization goes through role permission matching in package rbac,
// with superusers short-circuited to allowed.
//
// State lives in Redis: token records, the refresh blacklist, session
// registry, lockout counters, and throttle windows. Principals come
// from a pluggable [Directory]; package directory ships an in-memory
// implementation and a Postgres one.
//
// Construct an engine with the builder:
//
//	engine, err := authgate.New().
//		WithConfig(cfg).
//		WithRedis(client).
//		WithDirectory(dir).
//		Build()
package authgate
