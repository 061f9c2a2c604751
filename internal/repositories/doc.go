// Package repositories implements SQLite persistence for the web service's sessions.
//
// Repositories handle CRUD operations with atomic sequence generation for human-readable ordering.
// Deletes are soft via deleted_at timestamps and deleted records are excluded from queries by default.
//
// Key Implementations:
//   - [SessionRepository] : browser sessions holding the OAuth state, top tracks and last critique
//
// Sequence numbers provide stable, human-readable ordering (e.g., session #42) independent of UUIDs and creation timestamps.
// [NextSequence] bumps the sessions_sequence counter in a single UPDATE ... RETURNING statement.
package repositories
