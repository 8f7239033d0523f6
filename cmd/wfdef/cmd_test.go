package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI with args and returns stdout and the command error.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root, closeLog := newRootCmd()
	defer func() {
		if err := closeLog(); err != nil {
			t.Errorf("closing log output: %v", err)
		}
	}()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--log-output", "none"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeDefinition(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeDefinition(t, dir, "good.yaml", "version: 1.0\ntasks:\n  t1:\n    action: core.noop\n")
	dup := writeDefinition(t, dir, "dup.yaml", "version: 1.0\nversion: 2.0\n")
	broken := writeDefinition(t, dir, "broken.yaml", "a: [1, 2\n")

	tests := []struct {
		name     string
		args     []string
		stdin    string
		wantErr  bool
		contains []string
	}{
		{
			name:     "valid file",
			args:     []string{"check", good},
			contains: []string{"ok " + good + "#1"},
		},
		{
			name:     "duplicate key",
			args:     []string{"check", dup},
			wantErr:  true,
			contains: []string{"Failed to load workflow definition because found duplicate key \"version\""},
		},
		{
			name:     "syntax error",
			args:     []string{"check", broken},
			wantErr:  true,
			contains: []string{"Failed to load workflow definition because yaml:"},
		},
		{
			name:     "duplicates allowed",
			args:     []string{"check", "--allow-duplicate-keys", dup},
			contains: []string{"ok " + dup + "#1"},
		},
		{
			name:     "stdin",
			args:     []string{"check", "-"},
			stdin:    "a: 1\nb: 2\n",
			contains: []string{"ok -#1"},
		},
		{
			name:     "missing path",
			args:     []string{"check", filepath.Join(dir, "missing.yaml")},
			wantErr:  true,
			contains: []string{"cannot stat path"},
		},
		{
			name:     "directory",
			args:     []string{"check", dir},
			wantErr:  true,
			contains: []string{"ok " + good + "#1", "duplicate key", "error "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("check error = %v, wantErr %v\noutput:\n%s", err, tt.wantErr, out)
			}
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output does not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestCheckCommand_RequiresPath(t *testing.T) {
	if _, err := run(t, "", "check"); err == nil {
		t.Errorf("check without arguments: want error")
	}
}

func TestDumpCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeDefinition(t, dir, "wf.yaml", "zeta: 1\nalpha:\n  - x\n  - z\n---\nname: second\n")

	out, err := run(t, "", "dump", path, "-o", "json")
	if err != nil {
		t.Fatalf("dump -o json error = %v", err)
	}
	wantJSON := "{\n  \"zeta\": 1,\n  \"alpha\": [\n    \"x\",\n    \"z\"\n  ]\n}\n{\n  \"name\": \"second\"\n}\n"
	if out != wantJSON {
		t.Errorf("dump -o json =\n%s\nwant\n%s", out, wantJSON)
	}

	out, err = run(t, "", "dump", path)
	if err != nil {
		t.Fatalf("dump error = %v", err)
	}
	wantYAML := "zeta: 1\nalpha:\n  - x\n  - z\n---\nname: second\n"
	if out != wantYAML {
		t.Errorf("dump =\n%s\nwant\n%s", out, wantYAML)
	}
}

func TestDumpCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	dup := writeDefinition(t, dir, "dup.yaml", "a: 1\na: 2\n")

	if _, err := run(t, "", "dump", dup); err == nil || !strings.Contains(err.Error(), `duplicate key "a"`) {
		t.Errorf("dump duplicate error = %v", err)
	}
	if _, err := run(t, "", "dump", dup, "-o", "xml"); err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("dump -o xml error = %v", err)
	}
}

func TestDumpCommand_JSONKeyCollision(t *testing.T) {
	dir := t.TempDir()
	path := writeDefinition(t, dir, "keys.yaml", "1: a\n\"1\": b\n")

	if _, err := run(t, "", "dump", path, "-o", "yaml"); err != nil {
		t.Fatalf("dump -o yaml error = %v", err)
	}
	_, err := run(t, "", "dump", path, "-o", "json")
	if err == nil || !strings.Contains(err.Error(), "both encode as JSON key") {
		t.Errorf("dump -o json error = %v, want key collision", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "wfdef version ") {
		t.Errorf("version output = %q", out)
	}
}

func TestLogOutputFile(t *testing.T) {
	dir := t.TempDir()
	good := writeDefinition(t, dir, "good.yaml", "a: 1\n")
	logPath := filepath.Join(dir, "logs", "wfdef.log")

	root, closeLog := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--log-output", logPath, "--log-format", "json", "check", good})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("check error = %v", err)
	}
	if err := closeLog(); err != nil {
		t.Fatalf("closing log: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	for _, s := range []string{`"msg":"CMD:check/S"`, `"msg":"CMD:check/EOK"`, `"runId":`} {
		if !strings.Contains(string(data), s) {
			t.Errorf("log does not contain %s:\n%s", s, data)
		}
	}
}
