package batch

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/snonux/translore/internal/langdetect"
)

// Entry is one text to translate, with optional per-line target languages
type Entry struct {
	Text      string
	Languages []string
}

// ReadBatchFile reads texts from a file and returns Entry slice
// Supports formats:
// - Text only: "Good morning" (translated into the default languages)
// - With languages: "Good morning | French, Tamil"
// Lines starting with '#' are comments.
func ReadBatchFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return ParseBatch(string(content)), nil
}

// ParseBatch parses batch file content
func ParseBatch(content string) []Entry {
	var entries []Entry

	for _, line := range splitLines(content) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// The last '|' separates the language list, so texts may contain '|'
		if i := strings.LastIndex(line, "|"); i >= 0 {
			text := strings.TrimSpace(line[:i])
			if text == "" {
				continue
			}
			entries = append(entries, Entry{
				Text:      text,
				Languages: parseLanguages(line[i+1:]),
			})
			continue
		}

		entries = append(entries, Entry{Text: line})
	}

	return entries
}

func parseLanguages(s string) []string {
	var langs []string
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		name := langdetect.NormalizeName(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		langs = append(langs, name)
	}
	return langs
}

// splitLines splits a string by newlines, dropping carriage returns
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
