// Package memory persists per-user preferences and translation history as
// flat JSON files, and keeps a process-local log of the conversation.
//
// Files live in one directory:
//
//	<user>_preferences.json
//	<user>_history.json
//
// All read-modify-write cycles for a user run under that user's lock, so a
// single Store may be shared by concurrent HTTP handlers.
package memory
