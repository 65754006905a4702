package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Store persists sessions and their per-phase artifacts on disk.
type Store struct {
	baseDir string // defaults to ~/.genforge/sessions
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultStore returns a Store at ~/.genforge/sessions, creating the directory
// if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".genforge", "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Store{baseDir: dir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

func (s *Store) sessionDir(id string) string {
	return filepath.Join(s.baseDir, id)
}

func (s *Store) sessionPath(id string) string {
	return filepath.Join(s.sessionDir(id), "session.json")
}

// phaseAttemptDir returns the directory for a specific phase attempt.
func (s *Store) phaseAttemptDir(id, phase string, attempt int) string {
	return filepath.Join(s.sessionDir(id), "phases", phase, fmt.Sprintf("attempt-%d", attempt))
}

// Create writes a fresh session to disk.
func (s *Store) Create(sess *Session) error {
	dir := s.sessionDir(sess.ID)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	if err := os.MkdirAll(filepath.Join(dir, "phases"), 0o755); err != nil {
		return fmt.Errorf("mkdir phases: %w", err)
	}
	return writeJSON(s.sessionPath(sess.ID), sess)
}

// Get reads a session by id.
func (s *Store) Get(id string) (*Session, error) {
	var sess Session
	if err := readJSON(s.sessionPath(id), &sess); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return nil, err
	}
	return &sess, nil
}

// Save persists the current session state.
func (s *Store) Save(sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	return writeJSON(s.sessionPath(sess.ID), sess)
}

// List returns all sessions, newest first, optionally filtered by status.
// Pass "" for statusFilter to return all sessions.
func (s *Store) List(statusFilter string) ([]Session, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}

	var sessions []Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sess, err := s.Get(entry.Name())
		if err != nil {
			continue // skip broken entries
		}
		if statusFilter == "" || sess.Status == statusFilter {
			sessions = append(sessions, *sess)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}

// Delete removes all data for a session.
func (s *Store) Delete(id string) error {
	dir := s.sessionDir(id)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("session %s not found", id)
	}
	return os.RemoveAll(dir)
}

// SavePrompt writes the rendered prompt for a phase attempt.
func (s *Store) SavePrompt(id, phase string, attempt int, prompt string) error {
	dir := s.phaseAttemptDir(id, phase, attempt)
	return writeAtomic(filepath.Join(dir, "prompt.md"), []byte(prompt))
}

// SaveRaw writes the raw collaborator output for a phase attempt, before fence
// unwrapping and correction.
func (s *Store) SaveRaw(id, phase string, attempt int, text string) error {
	dir := s.phaseAttemptDir(id, phase, attempt)
	return writeAtomic(filepath.Join(dir, "raw.txt"), []byte(text))
}

// SaveArtifact persists a corrected artifact for a phase attempt and returns
// the path it was written to.
func (s *Store) SaveArtifact(id, phase string, attempt int, name, content string) (string, error) {
	path := filepath.Join(s.phaseAttemptDir(id, phase, attempt), "artifacts", name)
	if err := writeAtomic(path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}

// ArtifactDir returns the directory holding a phase attempt's artifacts.
func (s *Store) ArtifactDir(id, phase string, attempt int) string {
	return filepath.Join(s.phaseAttemptDir(id, phase, attempt), "artifacts")
}

// SaveCorrection writes the correction diagnostics JSON for a phase attempt.
func (s *Store) SaveCorrection(id, phase string, attempt int, v interface{}) error {
	dir := s.phaseAttemptDir(id, phase, attempt)
	return writeJSON(filepath.Join(dir, "correction.json"), v)
}

// GetArtifact reads a persisted artifact back.
func (s *Store) GetArtifact(id, phase string, attempt int, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.phaseAttemptDir(id, phase, attempt), "artifacts", name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Session files are written via a temp file in the target directory followed
// by a rename, so a crash mid-write never leaves a torn session.json behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".genforge-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return fmt.Errorf("write %s: %w", path, werr)
		}
		return fmt.Errorf("write %s: %w", path, cerr)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return writeAtomic(path, append(data, '\n'))
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", path, err)
	}
	return nil
}
