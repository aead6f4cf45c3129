// Package extract turns uploaded documents into plain text. Extraction
// never returns an error to the caller: unsupported types and parser
// failures are logged and reported as ("", false).
package extract
