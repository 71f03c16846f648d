// Package store is the durable revision log. Every successfully applied
// patch batch lands here as one row: the document hash before and after,
// the canonical operations JSON, and a human summary. The log is what
// makes the audit trail survive the process.
//
// SQLite with WAL mode; a single writer connection avoids SQLITE_BUSY
// under concurrent edits.
package store
