// Package store provides persistent storage for coven-account.
//
// # Architecture
//
// Storage is split into small interfaces:
//
//   - AccountStore: accounts and their profiles
//   - SessionStore: user sessions, looked up by bearer token
//   - AdminStore: admin operators and admin sessions
//   - AuditStore: account lifecycle audit log
//
// SQLiteStore implements all four in a single struct. RedisSessionStore is an
// alternative SessionStore that keeps sessions in Redis and reads accounts
// through an AccountStore.
//
// # Not-found errors
//
// Every "does not exist" error wraps ErrNotFound, so callers classify
// failures with errors.Is(err, store.ErrNotFound) regardless of which
// entity was missing. Expired sessions are reported as not found.
//
// # Includes
//
// FindSession and GetAccount take an Include. IncludeAccountProfile attaches
// the account's profile; an account that never stored one gets an empty
// profile rather than an error.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Deleting an account cascades to its profile and sessions through foreign keys.
//
// # Testing
//
// Use NewMockStore() for unit tests; it implements every interface above.
// Use NewSQLiteStore with a t.TempDir() path for integration tests.
package store
