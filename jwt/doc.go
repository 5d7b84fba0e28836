// Package jwt signs and verifies the compact tokens issued by the engine.
//
// Every token carries sub, iat, exp, a freshly generated jti, and a type
// claim ("access" or "refresh"); access tokens additionally embed the
// primary role and the canonical permission list. Key material is resolved
// once at construction and treated as immutable; [Config.VerifyKeys] is an
// ordered list tried newest-first so already-issued tokens survive a key
// rotation.
//
// Decode failures distinguish expiry from everything else: callers map
// [ErrExpired] to a user-facing "token expired" and [ErrInvalidToken] to a
// generic credential error.
package jwt
