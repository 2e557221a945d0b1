package tools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	maxGrepMatches  = 500
	maxGrepFileSize = 5 * 1024 * 1024
)

func (f *fileTools) grepDefinition() Definition {
	return Definition{
		Name:        "grep_files",
		Description: "Searches file contents with a regular expression (RE2 syntax) and returns matching lines as path:line: text.",
		Schema: Object(map[string]any{
			"pattern":          Prop("string", "Regular expression to search for"),
			"path":             Prop("string", "File or directory to search, relative to the working directory. Defaults to the working directory."),
			"glob":             Prop("string", "Only search files whose relative path matches this glob, e.g. '**/*.go'"),
			"case_insensitive": Prop("boolean", "Ignore case when matching"),
		}, "pattern"),
		ReadOnly: true,
		Handler:  f.runGrep,
	}
}

func (f *fileTools) runGrep(ctx context.Context, args map[string]any) (string, error) {
	pattern, _ := GetString(args, "pattern")
	if GetBoolDefault(args, "case_insensitive", false) {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid regex: %w", err)
	}

	globPattern := GetStringDefault(args, "glob", "")
	if globPattern != "" && !doublestar.ValidatePattern(globPattern) {
		return "", fmt.Errorf("invalid glob: %s", globPattern)
	}

	root, err := f.guard.Resolve(GetStringDefault(args, "path", "."))
	if err != nil {
		return "", err
	}

	var results strings.Builder
	matchCount, fileCount := 0, 0
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if f.ignored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel := f.guard.Rel(path)
		if globPattern != "" {
			if ok, _ := doublestar.Match(globPattern, rel); !ok {
				return nil
			}
		}

		n, err := grepFile(path, rel, re, maxGrepMatches-matchCount, &results)
		if err != nil {
			return nil
		}
		if n > 0 {
			fileCount++
			matchCount += n
		}
		if matchCount >= maxGrepMatches {
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return "", walkErr
	}

	if matchCount == 0 {
		return "No matches found.", nil
	}
	summary := fmt.Sprintf("Found %d match(es) in %d file(s):\n\n", matchCount, fileCount)
	if matchCount >= maxGrepMatches {
		summary = fmt.Sprintf("Found %d+ match(es) in %d file(s), capped, refine the pattern:\n\n", matchCount, fileCount)
	}
	return summary + results.String(), nil
}

// grepFile appends up to limit matching lines of path to out and returns how
// many it wrote. Binary and oversized files are skipped.
func grepFile(path, rel string, re *regexp.Regexp, limit int, out *strings.Builder) (int, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxGrepFileSize {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if isBinary(data) {
		return 0, nil
	}

	count := 0
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 64*1024), maxGrepFileSize)
	lineNum := 0
	for scanner.Scan() && count < limit {
		lineNum++
		line := scanner.Text()
		if !re.MatchString(line) {
			continue
		}
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "..."
		}
		fmt.Fprintf(out, "%s:%d: %s\n", rel, lineNum, line)
		count++
	}
	return count, nil
}
