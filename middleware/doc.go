// Package middleware adapts the engine to net/http handler chains.
//
// [Authenticated] verifies the bearer token and stashes the
// [authgate.AuthResult] in the request context; [RequirePermission]
// layers a permission check on top. Both translate engine errors into
// 401/403 responses and delegate every decision to the engine; no
// token parsing or policy lives here.
package middleware
