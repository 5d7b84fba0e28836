// Package password provides one-way credential hashing and verification
// using Argon2id with PHC-formatted output.
//
// Verification is constant-time and side-effect free: a mismatch returns
// false, never an error. Errors are reserved for malformed or unsupported
// hash encodings. Password policy (length, complexity, reuse) is owned by
// the administrative console, not this package.
package password
