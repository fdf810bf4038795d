// Package project persists editing state on disk. A project directory
// holds one SQLite database with the saved composition documents and the
// render jobs launched against them, plus a lock file that keeps editing
// sessions single-writer.
//
// The database carries a schema version and refuses to open on mismatch;
// there are no migrations. Clearing the database is the upgrade path.
package project
