package tools

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
)

const (
	maxReadFileSize  = 10 * 1024 * 1024
	defaultReadLimit = 2000
	maxLineLength    = 2000
)

func (f *fileTools) readDefinition() Definition {
	return Definition{
		Name:        "read_file",
		Description: "Reads a text file and returns its lines prefixed with line numbers. Use offset and limit for large files.",
		Schema: Object(map[string]any{
			"path":   Prop("string", "File path, relative to the working directory"),
			"offset": Prop("integer", "First line to read, 1-based (default 1)"),
			"limit":  Prop("integer", "Maximum number of lines to read (default 2000)"),
		}, "path"),
		ReadOnly: true,
		Handler:  f.runRead,
	}
}

func (f *fileTools) runRead(ctx context.Context, args map[string]any) (string, error) {
	path, _ := GetString(args, "path")
	offset := GetIntDefault(args, "offset", 1)
	limit := GetIntDefault(args, "limit", defaultReadLimit)
	if offset < 1 {
		offset = 1
	}
	if limit < 1 {
		limit = defaultReadLimit
	}

	abs, err := f.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, use list_directory", path)
	}
	if info.Size() > maxReadFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxReadFileSize)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	if isBinary(data) {
		return "", fmt.Errorf("%s appears to be a binary file", path)
	}
	if len(data) == 0 {
		return "(empty file)", nil
	}

	var builder strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), maxReadFileSize)
	lineNum, written := 0, 0
	for scanner.Scan() {
		lineNum++
		if lineNum < offset {
			continue
		}
		if written >= limit {
			fmt.Fprintf(&builder, "... (more lines follow, continue with offset %d)\n", lineNum)
			break
		}
		if lineNum%1000 == 0 && ctx.Err() != nil {
			return "", ctx.Err()
		}
		line := scanner.Text()
		if len(line) > maxLineLength {
			line = line[:maxLineLength] + "..."
		}
		fmt.Fprintf(&builder, "%6d\t%s\n", lineNum, line)
		written++
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if written == 0 {
		return fmt.Sprintf("(offset %d is beyond end of file, file has %d lines)", offset, lineNum), nil
	}
	return builder.String(), nil
}

// isBinary reports whether data looks like a binary file: a NUL byte in the
// first 8000 bytes, the same heuristic git uses.
func isBinary(data []byte) bool {
	n := len(data)
	if n > 8000 {
		n = 8000
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}
