package materialize

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/PentesterFlow/routescan/internal/errors"
)

// Commander runs an external command in dir with env added to the
// process environment.
type Commander interface {
	Run(ctx context.Context, dir string, env []string, name string, args ...string) error
}

// ExecCommander runs commands with os/exec. Interactive git prompts are
// disabled so a missing credential fails instead of blocking.
type ExecCommander struct{}

// Run implements Commander.
func (ExecCommander) Run(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), "GIT_TERMINAL_PROMPT=0"), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return nil
}

func (m *Materializer) cloneArgs(locator string, creds *Credentials, dir string) []string {
	args := []string{"clone", "--quiet"}
	if m.cfg.CloneDepth > 0 {
		args = append(args, "--depth", strconv.Itoa(m.cfg.CloneDepth))
	}
	if creds != nil && creds.Ref != "" {
		args = append(args, "--branch", creds.Ref)
	}
	return append(args, "--", locator, dir)
}

// cloneEnv passes the token as a git config entry through the environment
// so it never shows up in the process arguments.
func cloneEnv(creds *Credentials) []string {
	if !creds.HasToken() {
		return nil
	}
	return []string{
		"GIT_CONFIG_COUNT=1",
		"GIT_CONFIG_KEY_0=http.extraHeader",
		"GIT_CONFIG_VALUE_0=Authorization: Bearer " + creds.Token,
	}
}

func (m *Materializer) clone(ctx context.Context, locator string, creds *Credentials, dir string) error {
	err := m.cmd.Run(ctx, "", cloneEnv(creds), m.cfg.GitBinary, m.cloneArgs(locator, creds, dir)...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errors.NewCancelledError(locator, "clone")
	}
	return classifyCloneError(locator, err)
}

// classifyCloneError maps git's stderr onto a materialization error kind.
func classifyCloneError(locator string, err error) *errors.ScanError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "authentication failed"),
		strings.Contains(msg, "could not read username"),
		strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "403"):
		e := errors.NewAuthError(locator, 0, "git authentication failed")
		e.Cause = err
		return e
	case strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"):
		e := errors.NewNotFoundError(locator)
		e.Cause = err
		return e
	case strings.Contains(msg, "timed out"):
		return errors.NewTimeoutError(locator, "clone", err)
	default:
		return errors.NewNetworkError(locator, "clone", err)
	}
}
