package links

import (
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/font"
	"github.com/tsawler/linksheet/model"
	"github.com/tsawler/linksheet/overlay"
	"github.com/tsawler/linksheet/writer"
)

func testItems(n int) []model.Item {
	links := []string{
		"https://example.com/page",
		"http://golang.org",
		"example.org/no-scheme",
		"https://WWWW.example.com/MMMM",
		"https://i.io",
	}
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{Title: "Title", Link: links[i%len(links)], Subheader: "Sub"}
	}
	return items
}

func newReconstructor(t *testing.T) (*Reconstructor, *font.Registry) {
	t.Helper()
	fonts, err := font.DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry failed: %v", err)
	}
	rc, err := NewReconstructor(model.DefaultGeometry(), fonts)
	if err != nil {
		t.Fatalf("NewReconstructor failed: %v", err)
	}
	return rc, fonts
}

func TestRegions(t *testing.T) {
	rc, fonts := newReconstructor(t)
	g := model.DefaultGeometry()
	items := testItems(5)

	regions := rc.Regions(items)
	if len(regions) != len(items) {
		t.Fatalf("expected %d regions, got %d", len(items), len(regions))
	}
	for i, r := range regions {
		yBase := g.SlotTop(i)
		width := fonts.MeasureText(overlay.DisplayLink(items[i].Link), g.HeaderFace, g.FontSize)

		if r.Item != i || r.URI != items[i].Link {
			t.Errorf("region %d: item %d uri %q", i, r.Item, r.URI)
		}
		if r.Rect.X1 != g.LinkRightX {
			t.Errorf("region %d: right edge %v", i, r.Rect.X1)
		}
		if math.Abs(r.Rect.Width()-width) > 1e-9 {
			t.Errorf("region %d: width %v, measured %v", i, r.Rect.Width(), width)
		}
		if math.Abs(r.Rect.Y0-(yBase+g.LinkDY0)) > 1e-9 || math.Abs(r.Rect.Y1-(yBase+g.LinkDY1)) > 1e-9 {
			t.Errorf("region %d: band [%v, %v], want [%v, %v]", i, r.Rect.Y0, r.Rect.Y1, yBase+g.LinkDY0, yBase+g.LinkDY1)
		}
		if r.TopDown.FlipY(g.PageHeight) != r.Rect {
			t.Errorf("region %d: top-down %v does not flip to %v", i, r.TopDown, r.Rect)
		}
		if r.TopDown.Y0 > r.TopDown.Y1 {
			t.Errorf("region %d: top-down corners out of order", i)
		}
	}
}

// TestRegionsMatchLabels guards against the clickable area drifting away
// from the drawn label.
func TestRegionsMatchLabels(t *testing.T) {
	rc, fonts := newReconstructor(t)
	engine, err := overlay.NewEngine(model.DefaultGeometry(), fonts)
	if err != nil {
		t.Fatal(err)
	}
	items := testItems(5)
	ov, err := engine.Render(items)
	if err != nil {
		t.Fatal(err)
	}

	for i, r := range rc.Regions(items) {
		label := ov.Placements[i].LabelRect
		if cover := r.Rect.HorizontalOverlap(label); cover < 0.8 {
			t.Errorf("item %d: region covers %.2f of label width", i, cover)
		}
		if cover := r.Rect.VerticalOverlap(label); cover <= 0 {
			t.Errorf("item %d: region does not overlap label vertically", i)
		}
	}
}

func newPage(t *testing.T) *writer.Document {
	t.Helper()
	doc := writer.New()
	if _, err := doc.AddPage(612, 792, nil, nil); err != nil {
		t.Fatal(err)
	}
	return doc
}

func annotURIs(t *testing.T, doc *writer.Document) []string {
	t.Helper()
	page, err := doc.Page(0)
	if err != nil {
		t.Fatal(err)
	}
	annots, err := page.Annots()
	if err != nil {
		t.Fatal(err)
	}
	var uris []string
	for _, a := range annots {
		obj, _ := doc.Resolve(a)
		dict := obj.(core.Dict)
		if subtype, _ := dict.GetName("Subtype"); subtype != "Link" {
			continue
		}
		action, _ := dict.GetDict("A")
		uri, _ := action.GetString("URI")
		uris = append(uris, string(uri))
	}
	return uris
}

func TestAttach(t *testing.T) {
	rc, _ := newReconstructor(t)
	doc := newPage(t)

	// An existing annotation stays first.
	page, _ := doc.Page(0)
	existing := doc.Add(core.Dict{"Type": core.Name("Annot"), "Subtype": core.Name("Text")})
	page.Dict().Set("Annots", core.Array{existing})

	items := testItems(5)
	items[2].Link = ""
	items[4].Link = "https://"
	if err := rc.Attach(doc, 0, items); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	page, _ = doc.Page(0)
	annots, _ := page.Annots()
	if len(annots) != 4 {
		t.Fatalf("expected 4 annotations, got %d", len(annots))
	}
	if annots[0] != existing {
		t.Error("existing annotation was moved")
	}

	uris := annotURIs(t, doc)
	want := []string{items[0].Link, items[1].Link, items[3].Link}
	if len(uris) != len(want) {
		t.Fatalf("expected %d links, got %v", len(want), uris)
	}
	for i := range want {
		if uris[i] != want[i] {
			t.Errorf("link %d: got %q, want %q", i, uris[i], want[i])
		}
	}

	obj, _ := doc.Resolve(annots[1])
	annot := obj.(core.Dict)
	if border, _ := annot.GetArray("Border"); len(border) != 3 || border[2] != core.Int(0) {
		t.Errorf("unexpected border %v", border)
	}
	if flags, _ := annot.GetInt("F"); flags != 4 {
		t.Errorf("expected print flag, got %d", flags)
	}
}

func TestClickable(t *testing.T) {
	rc, _ := newReconstructor(t)
	tests := []struct {
		link string
		want bool
	}{
		{"", false},
		{"https://", false},
		{"http://https://", false},
		{"https://example.com", true},
		{"x", true},
	}
	for _, tt := range tests {
		regions := rc.Regions([]model.Item{{Link: tt.link}})
		if got := regions[0].Clickable(); got != tt.want {
			t.Errorf("Clickable(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}

func TestNewReconstructorErrors(t *testing.T) {
	fonts, err := font.DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	bad := model.DefaultGeometry()
	bad.SlotCount = 0
	unknown := model.DefaultGeometry()
	unknown.HeaderFace = "display"

	tests := []struct {
		name  string
		geom  model.Geometry
		fonts *font.Registry
	}{
		{"nil registry", model.DefaultGeometry(), nil},
		{"invalid geometry", bad, fonts},
		{"missing header face", unknown, fonts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, err := NewReconstructor(tt.geom, tt.fonts)
			if err == nil || rc != nil {
				t.Errorf("expected error, got %v, %v", rc, err)
			}
		})
	}
}

func TestAttachFile(t *testing.T) {
	rc, _ := newReconstructor(t)
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := newPage(t).WriteFile(path); err != nil {
		t.Fatal(err)
	}

	items := testItems(5)
	if err := rc.AttachFile(path, items); err != nil {
		t.Fatalf("AttachFile failed: %v", err)
	}

	doc, err := writer.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	uris := annotURIs(t, doc)
	if len(uris) != 5 {
		t.Fatalf("expected 5 links, got %d", len(uris))
	}
	for i, uri := range uris {
		if uri != items[i].Link {
			t.Errorf("link %d: got %q, want %q", i, uri, items[i].Link)
		}
	}
}

func TestAttachFileMissing(t *testing.T) {
	rc, _ := newReconstructor(t)
	path := filepath.Join(t.TempDir(), "absent.pdf")

	err := rc.AttachFile(path, testItems(1))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("AttachFile must not create the file")
	}
}

func TestASCIIURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/page?q=1#frag", "https://example.com/page?q=1#frag"},
		{"https://bücher.example/", "https://xn--bcher-kva.example/"},
		{"https://example.com/straße", "https://example.com/stra%C3%9Fe"},
		{"https://bücher.example:8080/a", "https://xn--bcher-kva.example:8080/a"},
		{"no scheme é", "no scheme %C3%A9"},
	}
	for _, tt := range tests {
		got, err := ASCIIURI(tt.in)
		if err != nil {
			t.Errorf("ASCIIURI(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ASCIIURI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
