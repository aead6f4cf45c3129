// Package culture retrieves background material about a language's culture.
// Articles are fetched from Wikipedia, split into overlapping chunks,
// embedded and stored in a per-language SQLite index on disk, which is then
// queried for the chunks nearest the search phrase.
package culture
