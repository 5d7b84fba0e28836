// Package directory provides principal stores for the engine.
//
// [Memory] is a map-backed store for tests, examples, and single-node
// tools. [Postgres] reads the admin console schema (users, roles,
// permissions and their join tables) through a pgx connection pool.
package directory
