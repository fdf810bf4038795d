package main

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cutroom/internal/rendersim"
)

type cliTestEnv struct {
	configPath string
	projectDir string
	serviceURL string
}

// setupCLITestEnv builds an isolated project directory, a config file
// pointing at it, and a running render simulator.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	projectDir := filepath.Join(base, "project")
	logDir := filepath.Join(base, "logs")
	previewDir := filepath.Join(base, "previews")
	for _, dir := range []string{projectDir, logDir, previewDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	sim := rendersim.NewServer(rendersim.Options{Tick: 5 * time.Millisecond}, nil)
	server := httptest.NewServer(sim.Handler())
	t.Cleanup(func() {
		sim.Close()
		server.Close()
	})

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
project_dir = %q
log_dir = %q
preview_dir = %q

[service]
base_url = %q
request_timeout = 5

[render]
poll_interval_ms = 10

[simulator]
tick_ms = 5
`, projectDir, logDir, previewDir, server.URL)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{
		configPath: configPath,
		projectDir: projectDir,
		serviceURL: server.URL,
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	full := append([]string{"--config", env.configPath}, args...)
	cmd.SetArgs(full)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

// firstIDFromOutput pulls the parenthesized id out of a creation message.
func firstIDFromOutput(t *testing.T, output string) string {
	t.Helper()
	open := strings.LastIndex(output, "(")
	end := strings.LastIndex(output, ")")
	if open < 0 || end <= open {
		t.Fatalf("no id in output:\n%s", output)
	}
	return output[open+1 : end]
}
