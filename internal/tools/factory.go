package tools

import (
	"time"

	"radsim/internal/config"
	"radsim/internal/git"
	"radsim/internal/logging"
	"radsim/internal/security"
)

// BuiltinOptions configures the builtin tools.
type BuiltinOptions struct {
	ShellTimeout time.Duration
	// Ignore filters glob, grep and list results. Nil means nothing is ignored.
	Ignore *git.GitIgnore
}

// fileTools carries what every builtin needs: the confinement root and the
// ignore rules.
type fileTools struct {
	guard  *security.PathGuard
	ignore *git.GitIgnore
}

func (f *fileTools) ignored(abs string, isDir bool) bool {
	return f.ignore != nil && f.ignore.IsIgnored(abs, isDir)
}

// Builtins returns the builtin tool definitions confined to guard's root.
func Builtins(guard *security.PathGuard, opts BuiltinOptions) []Definition {
	f := &fileTools{guard: guard, ignore: opts.Ignore}

	shellTimeout := opts.ShellTimeout
	if shellTimeout <= 0 {
		shellTimeout = config.DefaultShellTimeout
	}

	return []Definition{
		f.globDefinition(),
		f.readDefinition(),
		f.listDefinition(),
		f.grepDefinition(),
		f.writeDefinition(),
		f.deleteDefinition(),
		f.shellDefinition(shellTimeout),
	}
}

// RegisterBuiltins registers every builtin tool in r. The work directory's
// .gitignore rules are loaded when opts.Ignore is nil.
func RegisterBuiltins(r *Registry, guard *security.PathGuard, opts BuiltinOptions) error {
	if opts.Ignore == nil {
		opts.Ignore = git.NewGitIgnore(guard.Root())
		if err := opts.Ignore.Load(); err != nil {
			logging.Warn("failed to load .gitignore rules", "error", err)
		}
	}
	for _, def := range Builtins(guard, opts) {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
