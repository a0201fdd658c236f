package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/linksheet"
	"github.com/tsawler/linksheet/config"
)

func writeItems(t *testing.T, dir string, n int) []string {
	t.Helper()
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%d", i)
		content := fmt.Sprintf("Title: T%d\nLink: https://example.com/%d\nSubheader: S\nBullet: b\n", i, i)
		if err := os.WriteFile(filepath.Join(dir, keys[i]+".txt"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return keys
}

// blankConfig writes a config without a template so the builder draws on a
// blank page.
func blankConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.Template = ""
	path := filepath.Join(dir, "linksheet.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunNoKeys(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Usage: linksheet") {
		t.Errorf("usage not printed: %q", stderr.String())
	}
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-version"}, &stdout, &stderr); code != 0 {
		t.Errorf("exit code %d", code)
	}
	if !strings.Contains(stdout.String(), linksheet.Version) {
		t.Errorf("version output %q", stdout.String())
	}
}

func TestRunBuild(t *testing.T) {
	defer linksheet.SetLogger(nil)
	dir := t.TempDir()
	keys := writeItems(t, dir, 3)
	out := filepath.Join(dir, "report.pdf")

	args := append([]string{"-config", blankConfig(t, dir), "-input", dir, "-output", out, "-check"}, keys...)
	var stdout, stderr bytes.Buffer
	if code := run(args, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr.String())
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if got := strings.Count(stdout.String(), "  link "); got != 3 {
		t.Errorf("expected 3 link lines, got %d:\n%s", got, stdout.String())
	}
	if strings.Contains(stderr.String(), "warning:") {
		t.Errorf("unexpected warnings:\n%s", stderr.String())
	}
}

func TestRunMissingItem(t *testing.T) {
	defer linksheet.SetLogger(nil)
	dir := t.TempDir()
	writeItems(t, dir, 1)
	out := filepath.Join(dir, "report.pdf")

	args := []string{"-config", blankConfig(t, dir), "-input", dir, "-output", out, "k0", "gone"}
	var stdout, stderr bytes.Buffer
	if code := run(args, &stdout, &stderr); code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), filepath.Join(dir, "gone.txt")) {
		t.Errorf("error does not name the missing file: %q", stderr.String())
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output was created")
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "linksheet.yaml")
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", path, "-init"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *config.Default() {
		t.Error("initialized config differs from the defaults")
	}
}

func TestRunBadOverflow(t *testing.T) {
	defer linksheet.SetLogger(nil)
	dir := t.TempDir()
	keys := writeItems(t, dir, 1)
	args := append([]string{"-config", blankConfig(t, dir), "-input", dir, "-overflow", "squash"}, keys...)
	var stdout, stderr bytes.Buffer
	if code := run(args, &stdout, &stderr); code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, true)
	log.Debug("hello", "n", 1)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("non-terminal output is not JSON: %q", buf.String())
	}
	if rec["msg"] != "hello" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	newLogger(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Error("debug record written without -v")
	}
}
