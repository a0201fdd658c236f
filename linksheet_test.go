package linksheet

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tsawler/linksheet/config"
	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/inspect"
	"github.com/tsawler/linksheet/overlay"
	"github.com/tsawler/linksheet/writer"
)

var testLinks = []string{
	"https://example.com/first",
	"http://golang.org/doc",
	"https://pkg.go.dev/log/slog",
	"example.org/plain",
	"https://www.example.net/a/b?c=d",
}

// setup writes n complete item files and returns a config reading them and
// writing to a fresh output path, with no template.
func setup(t *testing.T, n int) (*config.Config, []string) {
	t.Helper()
	dir := t.TempDir()
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("item%d", i)
		content := fmt.Sprintf("Title: Item %d\nLink: %s\nSubheader: Subheader %d\nBullet: one\nBullet: two\n",
			i, testLinks[i%len(testLinks)], i)
		writeFile(t, filepath.Join(dir, keys[i]+".txt"), content)
	}

	cfg := config.Default()
	cfg.Paths.InputDir = dir
	cfg.Paths.Template = ""
	cfg.Paths.Output = filepath.Join(dir, "out", "report.pdf")
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Output), 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg, keys
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func validate(t *testing.T, path string) {
	t.Helper()
	if err := inspect.Validate(path); err != nil {
		t.Error(err)
	}
}

func TestBuild(t *testing.T) {
	cfg, keys := setup(t, 5)
	b, err := NewBuilder(cfg, WithCheck(true))
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}

	res, warnings, err := b.Build(keys)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings:\n%s", FormatWarnings(warnings))
	}
	if res.Output != cfg.Paths.Output || res.Items != 5 {
		t.Errorf("result = %+v", res)
	}

	if len(res.Links) != 5 {
		t.Fatalf("expected 5 link annotations, got %d", len(res.Links))
	}
	for i, c := range res.Links {
		if c.URI != testLinks[i] {
			t.Errorf("annotation %d: URI %q, want %q", i, c.URI, testLinks[i])
		}
		if c.Text != overlay.DisplayLink(testLinks[i]) {
			t.Errorf("annotation %d covers %q", i, c.Text)
		}
		if c.Coverage < minCoverage || !c.Underlined {
			t.Errorf("annotation %d: coverage %v underlined %v", i, c.Coverage, c.Underlined)
		}
	}

	doc, err := writer.Open(res.Output)
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := doc.PageCount(); n != 1 {
		t.Errorf("expected 1 page, got %d", n)
	}
	if p, _ := doc.Info().GetString("Producer"); string(p) != "linksheet "+Version {
		t.Errorf("Producer = %q", p)
	}
	validate(t, res.Output)

	// Nothing but the output should remain next to it.
	entries, err := os.ReadDir(filepath.Dir(res.Output))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("leftover files in output directory: %v", entries)
	}
}

func TestBuildTemplate(t *testing.T) {
	cfg, keys := setup(t, 3)

	tmpl := writer.New()
	if _, err := tmpl.AddPage(612, 792, []byte("0.5 g 0 0 612 100 re f\n"), nil); err != nil {
		t.Fatal(err)
	}
	page, err := tmpl.Page(0)
	if err != nil {
		t.Fatal(err)
	}
	existing := tmpl.Add(core.Dict{
		"Type":    core.Name("Annot"),
		"Subtype": core.Name("Link"),
		"Rect":    core.Array{core.Int(10), core.Int(10), core.Int(50), core.Int(20)},
		"Border":  core.Array{core.Int(0), core.Int(0), core.Int(0)},
	})
	page.Dict().Set("Annots", core.Array{existing})
	cfg.Paths.Template = filepath.Join(t.TempDir(), "template.pdf")
	if err := tmpl.WriteFile(cfg.Paths.Template); err != nil {
		t.Fatal(err)
	}
	before, err := os.ReadFile(cfg.Paths.Template)
	if err != nil {
		t.Fatal(err)
	}

	b, err := NewBuilder(cfg, WithCheck(true))
	if err != nil {
		t.Fatalf("NewBuilder failed: %v", err)
	}
	res, warnings, err := b.Build(keys)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings:\n%s", FormatWarnings(warnings))
	}
	if len(res.Links) != 4 {
		t.Fatalf("expected template annotation plus 3, got %d", len(res.Links))
	}
	if res.Links[0].URI != "" {
		t.Errorf("template annotation changed: %+v", res.Links[0])
	}
	for i, c := range res.Links[1:] {
		if c.URI != testLinks[i] {
			t.Errorf("annotation %d: URI %q", i+1, c.URI)
		}
	}

	after, err := os.ReadFile(cfg.Paths.Template)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("template file was modified")
	}
	validate(t, res.Output)
}

func TestBuildMissingItem(t *testing.T) {
	cfg, keys := setup(t, 2)
	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = b.Build(append(keys, "absent"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if !strings.Contains(err.Error(), "absent.txt") {
		t.Errorf("error does not name the file: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.Output); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("output was created: %v", err)
	}

	// An output from an earlier run is left as it was.
	if _, _, err := b.Build(keys); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	before, err := os.ReadFile(cfg.Paths.Output)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.Build(append(keys, "absent")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	after, err := os.ReadFile(cfg.Paths.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("existing output was modified")
	}
}

func TestBuildMissingTemplate(t *testing.T) {
	cfg, keys := setup(t, 1)
	cfg.Paths.Template = filepath.Join(t.TempDir(), "none.pdf")
	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.Build(keys); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if _, err := os.Stat(cfg.Paths.Output); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("output was created: %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		items  int
		modify func(cfg *config.Config)
		keys   func(keys []string) []string
		target error
	}{
		{
			name:   "too many items",
			items:  6,
			target: overlay.ErrTooManyItems,
		},
		{
			name:  "no keys",
			items: 1,
			keys:  func([]string) []string { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, keys := setup(t, tt.items)
			if tt.modify != nil {
				tt.modify(cfg)
			}
			if tt.keys != nil {
				keys = tt.keys(keys)
			}
			b, err := NewBuilder(cfg)
			if err != nil {
				t.Fatal(err)
			}
			_, _, err = b.Build(keys)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
			if _, err := os.Stat(cfg.Paths.Output); !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("output was created: %v", err)
			}
		})
	}
}

func TestBuildOverflow(t *testing.T) {
	cfg, _ := setup(t, 0)
	writeFile(t, filepath.Join(cfg.Paths.InputDir, "long.txt"),
		"Title: Long\nLink: https://example.com\nSubheader: Many\nBullet: 1\nBullet: 2\nBullet: 3\nBullet: 4\n")

	b, err := NewBuilder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := b.Build([]string{"long"}); !errors.Is(err, overlay.ErrSlotOverflow) {
		t.Fatalf("expected slot overflow, got %v", err)
	}

	cfg.Overflow = "clip"
	b, err = NewBuilder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, warnings, err := b.Build([]string{"long"})
	if err != nil {
		t.Fatalf("Build with clip failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Field != "bullets" {
		t.Errorf("expected one bullets warning, got %v", warnings)
	}
}

func TestBuildSparseItems(t *testing.T) {
	cfg, _ := setup(t, 0)
	writeFile(t, filepath.Join(cfg.Paths.InputDir, "bare.txt"), "Title: Only a title\nLink: https://example.com/x\n")
	writeFile(t, filepath.Join(cfg.Paths.InputDir, "nolink.txt"), "Title: No link\nSubheader: s\nBullet: b\n")
	writeFile(t, filepath.Join(cfg.Paths.InputDir, "scheme.txt"), "Title: Scheme only\nLink: https://\nSubheader: s\n")

	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	b, err := NewBuilder(cfg, WithCheck(true))
	if err != nil {
		t.Fatal(err)
	}
	res, warnings, err := b.Build([]string{"bare", "nolink", "scheme"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	fields := make(map[string]bool)
	for _, w := range warnings {
		fields[fmt.Sprintf("%d/%s", w.Item, w.Field)] = true
	}
	for _, want := range []string{"0/subheader", "1/link", "2/link"} {
		if !fields[want] {
			t.Errorf("missing warning %s in %v", want, warnings)
		}
	}
	if fields["0/bullets"] {
		t.Error("an empty bullet list should not warn")
	}
	if len(res.Links) != 1 || res.Links[0].URI != "https://example.com/x" {
		t.Errorf("expected one annotation for the linked item, got %+v", res.Links)
	}
	for _, w := range warnings {
		if w.Item == -1 {
			t.Errorf("annotation count mismatch: %v", w)
		}
	}
	if !strings.Contains(logs.String(), "report written") {
		t.Errorf("info log missing:\n%s", logs.String())
	}
}

func TestCompose(t *testing.T) {
	cfg, _ := setup(t, 0)
	stamp := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b, err := NewBuilder(cfg, WithClock(func() time.Time { return stamp }))
	if err != nil {
		t.Fatal(err)
	}

	doc, warnings, err := b.Compose([]Item{{Title: "T", Link: "https://a.io", Subheader: "S"}})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if d, _ := doc.Info().GetString("ModDate"); string(d) != "D:20240301120000Z" {
		t.Errorf("ModDate = %q", d)
	}

	runs, err := inspect.TextRuns(doc, 0)
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, r := range runs {
		texts = append(texts, r.Text)
	}
	if strings.Join(texts, "|") != "T|a.io|S" {
		t.Errorf("runs = %q", texts)
	}

	checks, err := inspect.CheckLinks(doc, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 0 {
		t.Errorf("Compose attached %d annotations", len(checks))
	}
}

func TestNewBuilderInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Geometry.LinkDY1 = cfg.Geometry.LinkDY0
	if _, err := NewBuilder(cfg); err == nil {
		t.Error("expected geometry error")
	}

	cfg = config.Default()
	cfg.Overflow = "shrink"
	if _, err := NewBuilder(cfg); err == nil {
		t.Error("expected overflow policy error")
	}
}

func TestFormatWarnings(t *testing.T) {
	got := FormatWarnings([]Warning{
		{Item: 0, Field: "title", Message: "empty"},
		{Item: -1, Message: "general"},
	})
	want := "item 0 title: empty\ngeneral"
	if got != want {
		t.Errorf("FormatWarnings = %q, want %q", got, want)
	}
}
