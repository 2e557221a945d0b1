package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxListEntries = 500

func (f *fileTools) listDefinition() Definition {
	return Definition{
		Name:        "list_directory",
		Description: "Lists the entries of a directory. Directories end with '/', files show their size.",
		Schema: Object(map[string]any{
			"path": Prop("string", "Directory path, relative to the working directory. Defaults to the working directory."),
		}),
		ReadOnly: true,
		Handler:  f.runList,
	}
}

func (f *fileTools) runList(ctx context.Context, args map[string]any) (string, error) {
	dir, err := f.guard.Resolve(GetStringDefault(args, "path", "."))
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory not found: %s", f.guard.Rel(dir))
		}
		return "", err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var builder strings.Builder
	shown := 0
	for _, entry := range entries {
		abs := filepath.Join(dir, entry.Name())
		if f.ignored(abs, entry.IsDir()) {
			continue
		}
		if shown >= maxListEntries {
			fmt.Fprintf(&builder, "... (%d entries total)\n", len(entries))
			break
		}
		if entry.IsDir() {
			builder.WriteString(entry.Name() + "/\n")
		} else {
			size := int64(0)
			if info, err := entry.Info(); err == nil {
				size = info.Size()
			}
			fmt.Fprintf(&builder, "%s (%s)\n", entry.Name(), formatSize(size))
		}
		shown++
	}

	if shown == 0 {
		return "(empty directory)", nil
	}
	return builder.String(), nil
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
