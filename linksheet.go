// Package linksheet composes item records into a single-page PDF report.
//
// Each item is read from a plain text file, laid out in one slot of a fixed
// grid on top of a template page, and given a clickable link annotation
// over its link label.
//
// Basic usage:
//
//	cfg := config.Default()
//	b, err := linksheet.NewBuilder(cfg)
//	if err != nil {
//	    // handle error
//	}
//	res, warnings, err := b.Build([]string{"mon", "tue", "wed"})
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", linksheet.FormatWarnings(warnings))
//	}
//	fmt.Println("wrote", res.Output)
//
// The layout engine (package overlay) and the link reconstructor (package
// links) share one geometry and one font registry, so every annotation
// lands on the label it belongs to.
package linksheet

import (
	"fmt"
	"os"
	"time"

	"github.com/tsawler/linksheet/config"
	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/font"
	"github.com/tsawler/linksheet/inspect"
	"github.com/tsawler/linksheet/itemfile"
	"github.com/tsawler/linksheet/links"
	"github.com/tsawler/linksheet/model"
	"github.com/tsawler/linksheet/overlay"
	"github.com/tsawler/linksheet/stamp"
	"github.com/tsawler/linksheet/writer"
)

// Version is the linksheet release written to the Producer entry.
const Version = "0.3.0"

// Item is one record: a title, a link, a subheader and bullets.
type Item = model.Item

// minCoverage is the share of a link label an annotation must cover before
// the check reports it.
const minCoverage = 0.99

// Builder runs the report pipeline.
type Builder struct {
	cfg    *config.Config
	fonts  *font.Registry
	engine *overlay.Engine
	links  *links.Reconstructor
	check  bool
	now    func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithFonts replaces the registry built from the configuration.
func WithFonts(r *font.Registry) Option {
	return func(b *Builder) {
		b.fonts = r
	}
}

// WithCheck validates the output after writing and verifies that every
// annotation covers its label.
func WithCheck(check bool) Option {
	return func(b *Builder) {
		b.check = check
	}
}

// WithClock sets the time recorded as the modification date.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.now = now
	}
}

// Result describes a finished build.
type Result struct {
	Output string
	Items  int
	// Links holds the verification of each annotation when checking is on.
	Links []inspect.LinkCheck
}

// NewBuilder validates cfg and prepares the layout engine and link
// reconstructor.
func NewBuilder(cfg *config.Config, opts ...Option) (*Builder, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	b := &Builder{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	policy, err := cfg.OverflowPolicy()
	if err != nil {
		return nil, err
	}
	if b.fonts == nil {
		if b.fonts, err = cfg.Registry(); err != nil {
			return nil, fmt.Errorf("failed to load fonts: %w", err)
		}
	}

	b.engine, err = overlay.NewEngine(cfg.Geometry, b.fonts, overlay.WithOverflow(policy))
	if err != nil {
		return nil, err
	}
	b.links, err = links.NewReconstructor(cfg.Geometry, b.fonts)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Build loads the items named keys and writes the report to the configured
// output path. A missing item file fails before the output is touched.
func (b *Builder) Build(keys []string) (*Result, []Warning, error) {
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("no item keys given")
	}
	log := Logger()

	items, err := itemfile.LoadAll(b.cfg.Paths.InputDir, keys)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("items loaded", "count", len(items), "dir", b.cfg.Paths.InputDir)

	return b.BuildItems(items)
}

// BuildItems writes the report for items that are already in memory.
func (b *Builder) BuildItems(items []Item) (*Result, []Warning, error) {
	log := Logger()
	output := b.cfg.Paths.Output
	if output == "" {
		return nil, nil, fmt.Errorf("no output path configured")
	}

	doc, warnings, err := b.Compose(items)
	if err != nil {
		return nil, warnings, err
	}
	if err := doc.WriteFile(output); err != nil {
		return nil, warnings, fmt.Errorf("failed to write %s: %w", output, err)
	}
	log.Debug("overlay written", "path", output)

	if err := b.links.AttachFile(output, items); err != nil {
		return nil, warnings, fmt.Errorf("failed to attach links: %w", err)
	}
	log.Info("report written", "path", output, "items", len(items))

	res := &Result{Output: output, Items: len(items)}
	if b.check {
		if err := inspect.Validate(output); err != nil {
			return nil, warnings, err
		}
		checks, err := inspect.CheckFile(output)
		if err != nil {
			return nil, warnings, fmt.Errorf("failed to check %s: %w", output, err)
		}
		res.Links = checks
		for _, w := range linkWarnings(checks, b.links.Regions(items)) {
			log.Warn(w.Message, "item", w.Item, "field", w.Field)
			warnings = append(warnings, w)
		}
	}
	return res, warnings, nil
}

// Compose renders items onto the template page and returns the merged
// document. Link annotations are not attached.
func (b *Builder) Compose(items []Item) (*writer.Document, []Warning, error) {
	ov, err := b.engine.Render(items)
	if err != nil {
		return nil, nil, err
	}
	warnings := append([]Warning(nil), ov.Warnings...)

	doc, err := b.template()
	if err != nil {
		return nil, warnings, err
	}
	if err := stamp.Apply(doc, 0, ov); err != nil {
		return nil, warnings, fmt.Errorf("failed to stamp overlay: %w", err)
	}

	doc.SetInfo("Producer", "linksheet "+Version)
	doc.SetModified(b.now())
	return doc, warnings, nil
}

// template opens the configured background, or a blank page of the
// geometry's size when no template is set.
func (b *Builder) template() (*writer.Document, error) {
	path := b.cfg.Paths.Template
	if path == "" {
		g := b.cfg.Geometry
		doc := writer.New()
		if _, err := doc.AddPage(g.PageWidth, g.PageHeight, nil, core.Dict{}); err != nil {
			return nil, err
		}
		return doc, nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}
	doc, err := writer.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", path, err)
	}
	n, err := doc.PageCount()
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("template %s has no pages", path)
	}
	return doc, nil
}

// linkWarnings reports annotations that miss their label. The annotations
// this build added are the last ones on the page, one per clickable region.
func linkWarnings(checks []inspect.LinkCheck, regions []links.Region) []Warning {
	var linked []int
	for _, r := range regions {
		if r.Clickable() {
			linked = append(linked, r.Item)
		}
	}
	if len(checks) < len(linked) {
		return []Warning{{Item: -1, Message: fmt.Sprintf("found %d link annotations, want %d", len(checks), len(linked))}}
	}
	checks = checks[len(checks)-len(linked):]

	var warnings []Warning
	for k, c := range checks {
		item := linked[k]
		switch {
		case c.Text == "":
			warnings = append(warnings, Warning{Item: item, Field: "link", Message: "annotation covers no text"})
		case c.Coverage < minCoverage:
			warnings = append(warnings, Warning{Item: item, Field: "link",
				Message: fmt.Sprintf("annotation covers %.0f%% of %q", c.Coverage*100, c.Text)})
		case !c.Underlined:
			warnings = append(warnings, Warning{Item: item, Field: "link", Message: fmt.Sprintf("label %q is not underlined", c.Text)})
		}
	}
	return warnings
}
