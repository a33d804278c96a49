package kosli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// runFunc executes a command and returns its combined output.
type runFunc func(ctx context.Context, bin string, args, env []string) ([]byte, error)

// CLI implements port.EvidenceRegistry and port.Attester by shelling out to
// the kosli binary.
type CLI struct {
	bin  string
	opts Options
	run  runFunc
}

// NewCLI creates a CLI-backed registry using the binary at bin.
func NewCLI(bin string, opts Options) *CLI {
	return &CLI{bin: bin, opts: opts, run: runCommand}
}

func runCommand(ctx context.Context, bin string, args, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(os.Environ(), env...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

func (c *CLI) env() []string {
	return []string{
		"KOSLI_HOST=" + c.opts.Host,
		"KOSLI_ORG=" + c.opts.Org,
		"KOSLI_API_TOKEN=" + c.opts.Token,
		fmt.Sprintf("KOSLI_MAX_API_RETRIES=%d", c.opts.MaxRetries),
	}
}

func (c *CLI) kosli(ctx context.Context, args ...string) error {
	out, err := c.run(ctx, c.bin, args, c.env())
	if err != nil {
		return fmt.Errorf("kosli %s: %w: %s", strings.Join(args[:2], " "), err, strings.TrimSpace(string(out)))
	}
	slog.Debug("kosli command", "args", args, "output", strings.TrimSpace(string(out)))
	return nil
}

// EnsureTrail begins the trail unless "get trail" already finds it. begin
// trail is an upsert, so a lost race only updates the trail.
func (c *CLI) EnsureTrail(ctx context.Context, name string, tmpl domain.TrailTemplate) error {
	if err := c.kosli(ctx, "get", "trail", name, "--flow", c.opts.Flow); err == nil {
		return nil
	}

	templatePath, cleanup, err := writeTemp("trail-template-*.yml", func() ([]byte, error) { return RenderTemplate(tmpl) })
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.kosli(ctx, "begin", "trail", name,
		"--flow", c.opts.Flow,
		"--template-file", templatePath,
		"--description", tmpl.Description,
	); err != nil {
		return fmt.Errorf("begin trail %s: %w", name, err)
	}
	slog.Info("trail begun", "flow", c.opts.Flow, "trail", name)
	return nil
}

// Attach reports ev as a generic attestation.
func (c *CLI) Attach(ctx context.Context, trail string, ev domain.Evidence) error {
	args := []string{"attest", "generic",
		"--name", ev.Name,
		"--flow", c.opts.Flow,
		"--trail", trail,
		"--compliant",
	}
	if len(ev.UserData) > 0 {
		userData, cleanup, err := writeTemp("user-data-*.json", func() ([]byte, error) { return json.Marshal(ev.UserData) })
		if err != nil {
			return err
		}
		defer cleanup()
		args = append(args, "--user-data", userData)
	}
	if len(ev.Files) > 0 {
		args = append(args, "--evidence-paths", strings.Join(ev.Files, ","))
	}

	if err := c.kosli(ctx, args...); err != nil {
		return fmt.Errorf("attest %s on trail %s: %w", ev.Name, trail, err)
	}
	slog.Info("evidence attached", "flow", c.opts.Flow, "trail", trail, "evidence", ev.Name)
	return nil
}

// EnsureFlow creates or updates the flow from tmpl.
func (c *CLI) EnsureFlow(ctx context.Context, tmpl domain.TrailTemplate) error {
	templatePath, cleanup, err := writeTemp("flow-template-*.yml", func() ([]byte, error) { return RenderTemplate(tmpl) })
	if err != nil {
		return err
	}
	defer cleanup()

	return c.kosli(ctx, "create", "flow", c.opts.Flow,
		"--template-file", templatePath,
		"--description", tmpl.Description,
	)
}

func writeTemp(pattern string, render func() ([]byte, error)) (string, func(), error) {
	data, err := render()
	if err != nil {
		return "", func() {}, err
	}
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("create %s: %w", pattern, err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, err
	}
	return filepath.Clean(path), cleanup, nil
}
