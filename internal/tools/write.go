package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"radsim/internal/fileutil"
)

func (f *fileTools) writeDefinition() Definition {
	return Definition{
		Name:        "write_file",
		Description: "Creates or overwrites a file with the given content. Parent directories are created. Requires confirmation.",
		Schema: Object(map[string]any{
			"path":    Prop("string", "File path, relative to the working directory"),
			"content": Prop("string", "The complete new file content"),
		}, "path", "content"),
		Destructive: true,
		Handler:     f.runWrite,
		Preview:     f.previewWrite,
	}
}

func (f *fileTools) previewWrite(ctx context.Context, args map[string]any) (string, error) {
	path, _ := GetString(args, "path")
	content, _ := GetString(args, "content")

	abs, err := f.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	old, err := os.ReadFile(abs)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	return DiffPreview(f.guard.Rel(abs), string(old), content), nil
}

func (f *fileTools) runWrite(ctx context.Context, args map[string]any) (string, error) {
	path, _ := GetString(args, "path")
	content, _ := GetString(args, "content")

	abs, err := f.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	action := "updated"
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		action = "created"
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := fileutil.AtomicWrite(abs, []byte(content), fileutil.FileMode(abs, 0644)); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fmt.Sprintf("Wrote %d bytes to %s (%s)", len(content), f.guard.Rel(abs), action), nil
}
