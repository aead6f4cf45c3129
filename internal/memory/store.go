package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeberg.org/snonux/translore/internal"
	"codeberg.org/snonux/translore/internal/logger"
)

// Preferences are a user's translation settings.
type Preferences struct {
	Style                  string   `json:"style"`
	IncludeCulturalContext bool     `json:"include_cultural_context"`
	IncludeIdioms          bool     `json:"include_idioms"`
	PreferredLanguages     []string `json:"preferred_languages"`
}

// DefaultPreferences returns the settings of a user who never saved any.
func DefaultPreferences() Preferences {
	return Preferences{
		Style:                  "informal",
		IncludeCulturalContext: true,
		IncludeIdioms:          true,
		PreferredLanguages:     []string{},
	}
}

func (p Preferences) clone() Preferences {
	p.PreferredLanguages = append([]string{}, p.PreferredLanguages...)
	return p
}

// HistoryEntry is one recorded translation.
type HistoryEntry struct {
	ID             string                 `json:"id,omitempty" yaml:"id,omitempty"`
	SourceText     string                 `json:"source_text" yaml:"source_text"`
	TargetLanguage string                 `json:"target_language" yaml:"target_language"`
	Translation    string                 `json:"translation" yaml:"translation"`
	Metadata       map[string]interface{} `json:"metadata" yaml:"metadata"`
	CreatedAt      time.Time              `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Store is the preference and history store. Create one per process.
type Store struct {
	dir string
	log *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	prefs map[string]Preferences

	conv *Conversation
}

// NewStore creates dir if needed and returns a store writing into it.
func NewStore(dir string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &Store{
		dir:   dir,
		log:   log,
		locks: make(map[string]*sync.Mutex),
		prefs: make(map[string]Preferences),
		conv:  NewConversation(),
	}, nil
}

// Dir returns the directory holding the JSON files.
func (s *Store) Dir() string { return s.dir }

// Conversation returns the process-local conversation log.
func (s *Store) Conversation() *Conversation { return s.conv }

// fileKey maps a user id to the file name prefix. Ids that sanitizing
// would change get a hash suffix after a '.', which SanitizeFilename never
// emits, so distinct ids never share files.
func fileKey(user string) string {
	key := internal.SanitizeFilename(user)
	if key == user {
		return key
	}
	sum := sha256.Sum256([]byte(user))
	return key + "." + hex.EncodeToString(sum[:])[:16]
}

// userLock returns the mutex guarding the files of key.
func (s *Store) userLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *Store) preferencesPath(key string) string {
	return filepath.Join(s.dir, key+"_preferences.json")
}

func (s *Store) historyPath(key string) string {
	return filepath.Join(s.dir, key+"_history.json")
}

// SavePreferences overwrites the user's preferences on disk and in memory.
func (s *Store) SavePreferences(user string, prefs Preferences) error {
	if prefs.PreferredLanguages == nil {
		prefs.PreferredLanguages = []string{}
	}

	key := fileKey(user)
	l := s.userLock(key)
	l.Lock()
	defer l.Unlock()

	if err := writeJSONFile(s.preferencesPath(key), prefs); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	s.mu.Lock()
	s.prefs[key] = prefs.clone()
	s.mu.Unlock()

	s.log.Debug("Saved preferences", "user", user, "style", prefs.Style)
	return nil
}

// LoadPreferences returns the cached preferences, else the file contents,
// else the defaults. A missing file is not an error.
func (s *Store) LoadPreferences(user string) (Preferences, error) {
	key := fileKey(user)
	s.mu.Lock()
	p, ok := s.prefs[key]
	s.mu.Unlock()
	if ok {
		return p.clone(), nil
	}

	l := s.userLock(key)
	l.Lock()
	defer l.Unlock()

	prefs := DefaultPreferences()
	data, err := os.ReadFile(s.preferencesPath(key))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return prefs, fmt.Errorf("failed to read preferences: %w", err)
	default:
		if err := json.Unmarshal(data, &prefs); err != nil {
			return DefaultPreferences(), fmt.Errorf("failed to parse preferences: %w", err)
		}
		if prefs.PreferredLanguages == nil {
			prefs.PreferredLanguages = []string{}
		}
	}

	s.mu.Lock()
	s.prefs[key] = prefs.clone()
	s.mu.Unlock()
	return prefs, nil
}

// AddHistory appends entry to the user's history file and records the
// exchange in the conversation log.
func (s *Store) AddHistory(user string, entry HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]interface{}{}
	}

	key := fileKey(user)
	l := s.userLock(key)
	l.Lock()
	defer l.Unlock()

	entries, err := s.readHistory(key)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if err := writeJSONFile(s.historyPath(key), entries); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	s.conv.Add(RoleUser, fmt.Sprintf("Translation request: %s -> %s", entry.SourceText, entry.TargetLanguage))
	s.conv.Add(RoleAssistant, fmt.Sprintf("Translation: %s", entry.Translation))

	s.log.Debug("Added history entry", "user", user, "language", entry.TargetLanguage, "entries", len(entries))
	return nil
}

// History returns the last limit entries in chronological order. A limit
// of zero or less returns the whole history.
func (s *Store) History(user string, limit int) ([]HistoryEntry, error) {
	key := fileKey(user)
	l := s.userLock(key)
	l.Lock()
	defer l.Unlock()

	entries, err := s.readHistory(key)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

func (s *Store) readHistory(key string) ([]HistoryEntry, error) {
	data, err := os.ReadFile(s.historyPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return []HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}

// writeJSONFile replaces path atomically.
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
