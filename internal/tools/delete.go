package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"radsim/internal/logging"
)

func (f *fileTools) deleteDefinition() Definition {
	return Definition{
		Name:        "delete_file",
		Description: "Deletes a file, or a directory when recursive is true. Requires confirmation.",
		Schema: Object(map[string]any{
			"path":      Prop("string", "Path to delete, relative to the working directory"),
			"recursive": Prop("boolean", "Delete a directory and everything in it"),
		}, "path"),
		Destructive: true,
		Handler:     f.runDelete,
		Preview:     f.previewDelete,
	}
}

// target resolves the path to delete and refuses the root itself.
func (f *fileTools) target(args map[string]any) (string, os.FileInfo, error) {
	path, _ := GetString(args, "path")
	abs, err := f.guard.Resolve(path)
	if err != nil {
		return "", nil, err
	}
	if abs == f.guard.Root() {
		return "", nil, fmt.Errorf("refusing to delete the working directory")
	}
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("path not found: %s", path)
		}
		return "", nil, err
	}
	return abs, info, nil
}

func (f *fileTools) previewDelete(ctx context.Context, args map[string]any) (string, error) {
	abs, info, err := f.target(args)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return fmt.Sprintf("delete file %s (%s)", f.guard.Rel(abs), formatSize(info.Size())), nil
	}

	var files []string
	skipped := 0
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logging.Debug("delete preview: unreadable entry", "path", path, "error", err)
			skipped++
			return nil
		}
		if !d.IsDir() {
			files = append(files, f.guard.Rel(path))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to list %s: %w", f.guard.Rel(abs), err)
	}
	preview := fmt.Sprintf("delete directory %s (%d files)", f.guard.Rel(abs), len(files))
	if skipped > 0 {
		preview += fmt.Sprintf(", %d entries could not be read", skipped)
	}
	if len(files) > 20 {
		files = append(files[:20], "...")
	}
	if len(files) > 0 {
		preview += "\n  " + strings.Join(files, "\n  ")
	}
	return preview, nil
}

func (f *fileTools) runDelete(ctx context.Context, args map[string]any) (string, error) {
	abs, info, err := f.target(args)
	if err != nil {
		return "", err
	}

	if info.IsDir() {
		if !GetBoolDefault(args, "recursive", false) {
			if err := os.Remove(abs); err != nil {
				return "", fmt.Errorf("directory is not empty, set recursive to delete it: %w", err)
			}
			return fmt.Sprintf("Deleted directory %s", f.guard.Rel(abs)), nil
		}
		if err := os.RemoveAll(abs); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted directory %s and its contents", f.guard.Rel(abs)), nil
	}

	if err := os.Remove(abs); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %s", f.guard.Rel(abs)), nil
}
