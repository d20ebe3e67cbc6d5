// Package store defines the persistence interfaces for project records and
// tags, the errors they return, and the SQL implementation shared by the
// SQLite and PostgreSQL backends.
package store
