// Package audit keeps a JSON Lines trail of what happened to keys and documents.
//
// A Recorder attached to the service's event bus appends an entry for each
// key-list-updated, key-created, key-deleted and authorization-requested
// event. The encrypt and decrypt workflows append their own entries naming
// the files they changed.
//
// Entries live in <config dir>/audit.jsonl, one object per line, carrying a
// UTC timestamp with microseconds, a uuid, the user and host, the operation
// and its key id, key count or files. Passphrases and key material never
// reach the log.
//
// Writing is best-effort: a failed append is logged as a warning and the
// operation goes on. ReadEntries and ParseEntries skip lines they cannot
// decode, so a torn final line from an interrupted write is harmless.
package audit
