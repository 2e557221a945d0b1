package chat

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"radsim/internal/logging"
	"radsim/internal/security"
)

// ErrNoSession is returned by LoadLast when nothing has been saved yet.
var ErrNoSession = errors.New("no saved session")

const sessionExt = ".jsonl"

// Store persists conversations as one JSON line per turn, one file per
// session. Files are only ever appended to. Secrets are redacted before
// anything reaches disk.
type Store struct {
	dir      string
	redactor *security.Redactor
	mu       sync.Mutex
}

// SessionInfo describes a saved session.
type SessionInfo struct {
	ID         string
	LastActive time.Time
}

// NewStore returns a store writing into dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &Store{dir: dir, redactor: security.NewRedactor()}, nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, security.SanitizeFilename(sessionID)+sessionExt)
}

// Append writes turns to the end of the session file.
func (s *Store) Append(sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	var buf strings.Builder
	for _, t := range turns {
		data, err := json.Marshal(s.redact(t))
		if err != nil {
			return fmt.Errorf("failed to encode turn: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(buf.String()); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	logging.Debug("session turns saved", "session_id", sessionID, "turns", len(turns))
	return nil
}

// Load reads every turn of a session. Corrupt lines are skipped.
func (s *Store) Load(sessionID string) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(sessionID))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var turns []Turn
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var t Turn
		if err := json.Unmarshal(raw, &t); err != nil {
			logging.Warn("skipping corrupt session line", "session_id", sessionID, "line", line, "error", err.Error())
			continue
		}
		turns = append(turns, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return turns, nil
}

// LoadLast loads the most recently written session.
func (s *Store) LoadLast() (string, []Turn, error) {
	sessions, err := s.List()
	if err != nil {
		return "", nil, err
	}
	if len(sessions) == 0 {
		return "", nil, ErrNoSession
	}
	id := sessions[0].ID
	turns, err := s.Load(id)
	if err != nil {
		return "", nil, err
	}
	return id, turns, nil
}

// List returns saved sessions, most recent first.
func (s *Store) List() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var out []SessionInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != sessionExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, SessionInfo{
			ID:         strings.TrimSuffix(e.Name(), sessionExt),
			LastActive: info.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActive.After(out[j].LastActive)
	})
	return out, nil
}

// Delete removes a saved session.
func (s *Store) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return os.Remove(s.path(sessionID))
}

func (s *Store) redact(t Turn) Turn {
	t = t.Clone()
	t.Text = s.redactor.Redact(t.Text)
	for i := range t.ToolCalls {
		t.ToolCalls[i].Args = s.redactArgs(t.ToolCalls[i].Args)
	}
	for i := range t.Results {
		t.Results[i].Content = s.redactor.Redact(t.Results[i].Content)
		t.Results[i].Error = s.redactor.Redact(t.Results[i].Error)
	}
	return t
}

func (s *Store) redactArgs(args map[string]any) map[string]any {
	for k, v := range args {
		switch val := v.(type) {
		case string:
			args[k] = s.redactor.Redact(val)
		case map[string]any:
			args[k] = s.redactArgs(val)
		}
	}
	return args
}
