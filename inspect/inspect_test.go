package inspect

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/font"
	"github.com/tsawler/linksheet/links"
	"github.com/tsawler/linksheet/model"
	"github.com/tsawler/linksheet/overlay"
	"github.com/tsawler/linksheet/stamp"
	"github.com/tsawler/linksheet/writer"
)

// courierPage draws monospaced text so expected boxes are easy to compute:
// every Courier glyph is 600 units wide.
func courierPage(t *testing.T, content string, extra core.Dict) *writer.Document {
	t.Helper()
	doc := writer.New()
	courier := doc.Add(core.Dict{
		"Type":     core.Name("Font"),
		"Subtype":  core.Name("Type1"),
		"BaseFont": core.Name("Courier"),
	})
	resources := core.Dict{"Font": core.Dict{"F1": courier}}
	for k, v := range extra {
		resources[k] = v
	}
	if _, err := doc.AddPage(612, 792, []byte(content), resources); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestTextRuns(t *testing.T) {
	doc := courierPage(t, "BT /F1 10 Tf 100 700 Td (Hello) Tj ET", nil)

	runs, err := TextRuns(doc, 0)
	if err != nil {
		t.Fatalf("TextRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.Text != "Hello" || r.FontSize != 10 {
		t.Errorf("unexpected run %+v", r)
	}
	if math.Abs(r.Bounds.X0-100) > 1e-9 || math.Abs(r.Bounds.X1-130) > 1e-9 {
		t.Errorf("expected x span [100, 130], got [%v, %v]", r.Bounds.X0, r.Bounds.X1)
	}
	if !(r.Bounds.Y0 < 700 && r.Bounds.Y1 > 700) {
		t.Errorf("box %v does not straddle the baseline", r.Bounds)
	}
}

func TestTextRunsThroughForm(t *testing.T) {
	doc := writer.New()
	courier := doc.Add(core.Dict{
		"Type": core.Name("Font"), "Subtype": core.Name("Type1"), "BaseFont": core.Name("Courier"),
	})
	form, err := core.NewFlateStream(core.Dict{
		"Type":      core.Name("XObject"),
		"Subtype":   core.Name("Form"),
		"BBox":      core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
		"Matrix":    core.Array{core.Int(1), core.Int(0), core.Int(0), core.Int(1), core.Int(50), core.Int(0)},
		"Resources": core.Dict{"Font": core.Dict{"X": courier}},
	}, []byte("BT /X 10 Tf 0 100 Td (\x95 caf\xe9) Tj ET"))
	if err != nil {
		t.Fatal(err)
	}
	formRef := doc.Add(form)
	resources := core.Dict{"XObject": core.Dict{"Fm": formRef}}
	if _, err := doc.AddPage(612, 792, []byte("q /Fm Do Q"), resources); err != nil {
		t.Fatal(err)
	}

	runs, err := TextRuns(doc, 0)
	if err != nil {
		t.Fatalf("TextRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Text != "• café" {
		t.Errorf("expected decoded text, got %q", runs[0].Text)
	}
	if runs[0].Origin != (model.Point{X: 50, Y: 100}) {
		t.Errorf("expected origin (50, 100), got %v", runs[0].Origin)
	}
}

func TestTextRunsSkipsCompositeFonts(t *testing.T) {
	doc := writer.New()
	type0 := doc.Add(core.Dict{"Type": core.Name("Font"), "Subtype": core.Name("Type0")})
	resources := core.Dict{"Font": core.Dict{"C": type0}}
	if _, err := doc.AddPage(612, 792, []byte("BT /C 10 Tf (\x00\x01) Tj ET"), resources); err != nil {
		t.Fatal(err)
	}
	runs, err := TextRuns(doc, 0)
	if err != nil {
		t.Fatalf("TextRuns failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected composite font text to be skipped, got %v", runs)
	}
}

func TestCheckLinks(t *testing.T) {
	content := "BT /F1 10 Tf 100 700 Td (Hello) Tj ET 0.5 w 100 698 m 130 698 l S"
	doc := courierPage(t, content, nil)
	page, _ := doc.Page(0)
	half := doc.Add(core.Dict{
		"Type": core.Name("Annot"), "Subtype": core.Name("Link"),
		"Rect": core.Array{core.Int(100), core.Int(695), core.Int(115), core.Int(710)},
		"A":    core.Dict{"S": core.Name("URI"), "URI": core.String("https://example.com")},
	})
	full := doc.Add(core.Dict{
		"Type": core.Name("Annot"), "Subtype": core.Name("Link"),
		"Rect": core.Array{core.Int(130), core.Int(710), core.Int(100), core.Int(695)},
		"A":    core.Dict{"S": core.Name("GoTo")},
	})
	note := doc.Add(core.Dict{"Type": core.Name("Annot"), "Subtype": core.Name("Text")})
	nowhere := doc.Add(core.Dict{
		"Type": core.Name("Annot"), "Subtype": core.Name("Link"),
		"Rect": core.Array{core.Int(0), core.Int(0), core.Int(10), core.Int(10)},
	})
	page.Dict().Set("Annots", core.Array{half, note, full, nowhere})

	checks, err := CheckLinks(doc, 0)
	if err != nil {
		t.Fatalf("CheckLinks failed: %v", err)
	}
	if len(checks) != 3 {
		t.Fatalf("expected 3 link checks, got %d", len(checks))
	}

	if checks[0].URI != "https://example.com" || checks[0].Text != "Hello" || checks[0].Coverage != 0.5 {
		t.Errorf("unexpected first check %+v", checks[0])
	}
	if !checks[0].Underlined {
		t.Error("expected underline to be found")
	}
	if checks[1].URI != "" || checks[1].Coverage != 1 || checks[1].Index != 1 {
		t.Errorf("unexpected second check %+v", checks[1])
	}
	if checks[1].Rect.X0 != 100 || checks[1].Rect.Y0 != 695 {
		t.Errorf("rect was not normalized: %v", checks[1].Rect)
	}
	if checks[2].Text != "" || checks[2].Coverage != 0 {
		t.Errorf("expected no run under third link, got %+v", checks[2])
	}
}

// TestCheckFilePipeline renders, stamps and links a page, then verifies
// every link fully covers its label.
func TestCheckFilePipeline(t *testing.T) {
	fonts, err := font.DefaultRegistry()
	if err != nil {
		t.Fatal(err)
	}
	geom := model.DefaultGeometry()
	engine, err := overlay.NewEngine(geom, fonts)
	if err != nil {
		t.Fatal(err)
	}
	items := []model.Item{
		{Title: "One", Link: "https://example.com/page", Subheader: "s", Bullets: []string{"x"}},
		{Title: "Two", Link: "http://WWW.EXAMPLE.COM/WIDE", Subheader: "s"},
		{Title: "Three", Link: "https://i.io/ill", Subheader: "s"},
	}
	ov, err := engine.Render(items)
	if err != nil {
		t.Fatal(err)
	}

	doc := writer.New()
	if _, err := doc.AddPage(geom.PageWidth, geom.PageHeight, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := stamp.Apply(doc, 0, ov); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := doc.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	rc, err := links.NewReconstructor(geom, fonts)
	if err != nil {
		t.Fatal(err)
	}
	if err := rc.AttachFile(path, items); err != nil {
		t.Fatal(err)
	}

	checks, err := CheckFile(path)
	if err != nil {
		t.Fatalf("CheckFile failed: %v", err)
	}
	if len(checks) != len(items) {
		t.Fatalf("expected %d checks, got %d", len(items), len(checks))
	}
	for i, c := range checks {
		if c.URI != items[i].Link {
			t.Errorf("link %d: uri %q", i, c.URI)
		}
		if c.Text != overlay.DisplayLink(items[i].Link) {
			t.Errorf("link %d: covers %q", i, c.Text)
		}
		if c.Coverage < 0.99 {
			t.Errorf("link %d: coverage %.3f", i, c.Coverage)
		}
		if !c.Underlined {
			t.Errorf("link %d: label not underlined", i)
		}
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.pdf")
	if err := courierPage(t, "BT /F1 10 Tf 72 700 Td (ok) Tj ET", nil).WriteFile(good); err != nil {
		t.Fatal(err)
	}
	if err := Validate(good); err != nil {
		t.Errorf("Validate rejected a written document: %v", err)
	}

	bad := filepath.Join(dir, "bad.pdf")
	if err := os.WriteFile(bad, []byte("%PDF-1.7\nnot a document\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Validate(bad); err == nil {
		t.Error("expected Validate to reject a truncated file")
	}
}
