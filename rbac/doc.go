// Package rbac implements typed permission values and role-based access
// evaluation for the authentication engine.
//
// Permissions are modeled as a closed set of shapes (resource:action pairs,
// namespace:resource:action triples, and the super-permission wildcard)
// instead of strings re-parsed at evaluation time. Canonicalization is pure
// and deterministic so permission lists can be compared byte for byte.
//
// # Architecture boundaries
//
// This package owns permission algebra and principal-view construction. It
// does NOT load roles from anywhere (the directory collaborator owns role
// data) and does NOT decide superuser status; callers short-circuit that
// before consulting the evaluator.
package rbac
