package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"radsim/internal/config"
)

const maxGlobResults = config.DefaultMaxGlobResults

func (f *fileTools) globDefinition() Definition {
	return Definition{
		Name: "glob_files",
		Description: `Finds files matching a glob pattern, newest first.

PATTERN SYNTAX:
- *: any characters except /
- **: any characters including / (recursive)
- ?: a single character
- {a,b}: either a or b

Examples: "**/*.go", "src/**/*.{ts,tsx}", "*.txt". Gitignored files are excluded.`,
		Schema: Object(map[string]any{
			"pattern": Prop("string", "The glob pattern to match, e.g. '**/*.go'"),
			"path":    Prop("string", "Directory to search in, relative to the working directory. Defaults to the working directory."),
		}, "pattern"),
		ReadOnly: true,
		Handler:  f.runGlob,
	}
}

func (f *fileTools) runGlob(ctx context.Context, args map[string]any) (string, error) {
	pattern, _ := GetString(args, "pattern")
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("invalid pattern: %s", pattern)
	}

	dir, err := f.guard.Resolve(GetStringDefault(args, "path", "."))
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("path not found: %s", f.guard.Rel(dir))
	} else if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", f.guard.Rel(dir))
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("invalid pattern: %w", err)
	}

	type fileInfo struct {
		path    string
		modTime int64
	}
	var files []fileInfo
	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		abs := filepath.Join(dir, filepath.FromSlash(match))
		if f.ignored(abs, false) {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		files = append(files, fileInfo{path: abs, modTime: info.ModTime().UnixNano()})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime != files[j].modTime {
			return files[i].modTime > files[j].modTime
		}
		return files[i].path < files[j].path
	})

	if len(files) == 0 {
		return "(no matches)", nil
	}

	var builder strings.Builder
	total := len(files)
	if total > maxGlobResults {
		files = files[:maxGlobResults]
		fmt.Fprintf(&builder, "(showing %d of %d)\n", maxGlobResults, total)
	}
	for _, file := range files {
		builder.WriteString(f.guard.Rel(file.path))
		builder.WriteString("\n")
	}
	return builder.String(), nil
}
