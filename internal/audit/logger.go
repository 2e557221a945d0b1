package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"radsim/internal/security"
)

// Logger appends audit entries to <dir>/audit/<session>.jsonl.
type Logger struct {
	dir          string
	maxResultLen int
	enabled      bool
	redactor     *security.Redactor
	mu           sync.Mutex
}

// Config holds audit logger configuration.
type Config struct {
	Enabled      bool
	MaxResultLen int
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		MaxResultLen: 1000,
	}
}

// NewLogger creates an audit logger under dataDir. A disabled logger
// accepts and drops every entry.
func NewLogger(dataDir string, cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{}, nil
	}

	dir := filepath.Join(dataDir, "audit")
	// 0700: entries contain file paths and commands.
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &Logger{
		dir:          dir,
		maxResultLen: cfg.MaxResultLen,
		enabled:      true,
		redactor:     security.NewRedactor(),
	}, nil
}

// Enabled reports whether entries are written.
func (l *Logger) Enabled() bool {
	return l != nil && l.enabled
}

func (l *Logger) path(sessionID string) string {
	return filepath.Join(l.dir, security.SanitizeFilename(sessionID)+".jsonl")
}

// Log appends entry to its session's file after redacting secrets.
func (l *Logger) Log(entry *Entry) error {
	if !l.Enabled() || entry == nil {
		return nil
	}

	entry.Args = SanitizeArgs(entry.Args)
	for k, v := range entry.Args {
		if s, ok := v.(string); ok {
			entry.Args[k] = l.redactor.Redact(s)
		}
	}
	entry.Result = l.redactor.Redact(TruncateResult(entry.Result, l.maxResultLen))
	entry.Error = l.redactor.Redact(entry.Error)

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path(entry.SessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Query returns the entries of a session that match filter, oldest first.
func (l *Logger) Query(sessionID string, filter QueryFilter) ([]*Entry, error) {
	if !l.Enabled() {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path(sessionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var results []*Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if entry.Matches(filter) {
			results = append(results, &entry)
			if filter.Limit > 0 && len(results) >= filter.Limit {
				break
			}
		}
	}
	return results, scanner.Err()
}
