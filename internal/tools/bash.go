package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"radsim/internal/security"
)

const maxShellOutput = 30000

// SafeEnvVars is the environment passed through to shell commands. API keys
// and other secrets in the parent environment are not inherited.
var SafeEnvVars = []string{
	"PATH",
	"HOME",
	"USER",
	"SHELL",
	"TERM",
	"LANG",
	"LC_ALL",
	"LC_CTYPE",
	"TMPDIR",
	"GOPATH",
	"GOCACHE",
	"GOFLAGS",
}

func (f *fileTools) shellDefinition(timeout time.Duration) Definition {
	return Definition{
		Name: "run_shell",
		Description: fmt.Sprintf(`Runs a bash command in the working directory and returns its combined output.
Commands time out after %s. Interactive commands are not supported. Requires confirmation.`, timeout),
		Schema: Object(map[string]any{
			"command": Prop("string", "The bash command to run"),
		}, "command"),
		Destructive: true,
		Timeout:     timeout,
		Handler:     f.runShell,
	}
}

func (f *fileTools) runShell(ctx context.Context, args map[string]any) (string, error) {
	command, _ := GetString(args, "command")
	if err := security.CheckCommand(command); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	cmd.Dir = f.guard.Root()
	cmd.Env = buildSafeEnv()
	cmd.WaitDelay = time.Second

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	text := output.String()
	if len(text) > maxShellOutput {
		text = text[:maxShellOutput] + fmt.Sprintf("\n... (output truncated, %d bytes total)", output.Len())
	}

	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("command interrupted: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("exit code %d\n%s", exitErr.ExitCode(), strings.TrimRight(text, "\n"))
		}
		return "", fmt.Errorf("failed to run command: %w", err)
	}

	if text == "" {
		return "(no output)", nil
	}
	return text, nil
}

func buildSafeEnv() []string {
	env := make([]string, 0, len(SafeEnvVars)+1)
	hasPath := false
	for _, key := range SafeEnvVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
			hasPath = hasPath || key == "PATH"
		}
	}
	if !hasPath {
		env = append(env, "PATH=/usr/local/bin:/usr/bin:/bin")
	}
	return env
}
