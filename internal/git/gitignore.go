// Package git reads .gitignore rules so file tools can skip ignored paths.
package git

import (
	"bufio"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// pattern represents a single gitignore pattern.
type pattern struct {
	glob     string // relative to the ignore root, slash-separated
	negation bool   // starts with !
	dirOnly  bool   // ends with /
	anchored bool   // contains / before the last character
}

// GitIgnore matches paths against the .gitignore files under a root.
type GitIgnore struct {
	root     string
	patterns []pattern
	mu       sync.RWMutex
}

// NewGitIgnore creates a matcher rooted at root. Call Load to read rules.
func NewGitIgnore(root string) *GitIgnore {
	return &GitIgnore{root: root}
}

// Load reads every .gitignore below the root. The .git directory is always
// ignored. A missing root .gitignore is not an error.
func (g *GitIgnore) Load() error {
	var patterns []pattern
	err := filepath.WalkDir(g.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.IsDir() || d.Name() != ".gitignore" {
			return nil
		}
		loaded, err := loadFile(path, g.relDir(filepath.Dir(path)))
		if err == nil {
			patterns = append(patterns, loaded...)
		}
		return nil
	})
	patterns = append(patterns, pattern{glob: ".git", dirOnly: true})

	g.mu.Lock()
	g.patterns = patterns
	g.mu.Unlock()
	return err
}

func (g *GitIgnore) relDir(dir string) string {
	rel, err := filepath.Rel(g.root, dir)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func loadFile(path, baseDir string) ([]pattern, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []pattern
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if p, ok := parseLine(scanner.Text(), baseDir); ok {
			patterns = append(patterns, p)
		}
	}
	return patterns, scanner.Err()
}

// parseLine parses a single gitignore line.
func parseLine(line, baseDir string) (pattern, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return pattern{}, false
	}

	var p pattern
	if strings.HasPrefix(line, "!") {
		p.negation = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.Contains(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if line == "" {
		return pattern{}, false
	}

	if baseDir != "" {
		line = baseDir + "/" + line
		p.anchored = true
	}
	p.glob = line
	return p, true
}

// AddPattern adds a root-level pattern programmatically.
func (g *GitIgnore) AddPattern(line string) {
	if p, ok := parseLine(line, ""); ok {
		g.mu.Lock()
		g.patterns = append(g.patterns, p)
		g.mu.Unlock()
	}
}

// IsIgnored reports whether name, absolute or relative to the root, is
// ignored. The last matching pattern wins. A path inside an ignored
// directory is ignored.
func (g *GitIgnore) IsIgnored(name string, isDir bool) bool {
	rel := name
	if filepath.IsAbs(name) {
		r, err := filepath.Rel(g.root, name)
		if err != nil {
			return false
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)

	g.mu.RLock()
	defer g.mu.RUnlock()

	ignored := false
	for _, p := range g.patterns {
		if matches(p, rel, isDir) {
			ignored = !p.negation
		}
	}
	return ignored
}

func matches(p pattern, rel string, isDir bool) bool {
	if matchOne(p, rel, isDir) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if matchOne(p, dir, true) {
			return true
		}
	}
	return false
}

func matchOne(p pattern, rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if p.anchored {
		return globMatch(p.glob, rel)
	}
	return globMatch("**/"+p.glob, rel)
}

func globMatch(pattern, path string) bool {
	matched, err := doublestar.Match(pattern, path)
	return err == nil && matched
}
