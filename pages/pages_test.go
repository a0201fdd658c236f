package pages

import (
	"fmt"
	"testing"

	"github.com/tsawler/linksheet/core"
)

// mockResolver is a mock ObjectResolver for testing
type mockResolver struct {
	objects map[int]core.Object
}

func newMockResolver() *mockResolver {
	return &mockResolver{objects: make(map[int]core.Object)}
}

func (m *mockResolver) AddObject(num int, obj core.Object) {
	m.objects[num] = obj
}

func (m *mockResolver) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return m.ResolveReference(ref)
	}
	return obj, nil
}

func (m *mockResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	obj, ok := m.objects[ref.Number]
	if !ok {
		return nil, fmt.Errorf("object %d not found", ref.Number)
	}
	return obj, nil
}

func ref(n int) core.IndirectRef { return core.IndirectRef{Number: n} }

// nestedTree builds catalog 1 -> pages 2 -> [page 3, pages 4 -> [page 5]].
func nestedTree() *mockResolver {
	r := newMockResolver()
	r.AddObject(1, core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)})
	r.AddObject(2, core.Dict{
		"Type":      core.Name("Pages"),
		"Kids":      core.Array{ref(3), ref(4)},
		"Count":     core.Int(2),
		"MediaBox":  core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)},
		"Resources": core.Dict{"Font": core.Dict{"F1": ref(9)}},
	})
	r.AddObject(3, core.Dict{"Type": core.Name("Page"), "Parent": ref(2), "Contents": ref(6)})
	r.AddObject(4, core.Dict{"Type": core.Name("Pages"), "Parent": ref(2), "Kids": core.Array{ref(5)}, "Rotate": core.Int(-90)})
	r.AddObject(5, core.Dict{
		"Type":     core.Name("Page"),
		"Parent":   ref(4),
		"MediaBox": core.Array{core.Int(0), core.Int(0), core.Real(595.5), core.Int(842)},
		"Contents": core.Array{ref(6), ref(7)},
	})
	r.AddObject(6, core.NewStream(nil, []byte("q")))
	r.AddObject(7, core.NewStream(nil, []byte("Q")))
	return r
}

func TestCatalogPageTree(t *testing.T) {
	r := nestedTree()
	catalog := NewCatalog(r.objects[1].(core.Dict), r)
	if catalog.Type() != "Catalog" {
		t.Errorf("Type = %q", catalog.Type())
	}

	tree, err := catalog.PageTree()
	if err != nil {
		t.Fatalf("PageTree: %v", err)
	}
	count, err := tree.Count()
	if err != nil || count != 2 {
		t.Fatalf("Count = %d, %v", count, err)
	}

	first, _ := tree.GetPage(0)
	second, _ := tree.GetPage(1)
	if first.Ref().Number != 3 || second.Ref().Number != 5 {
		t.Errorf("page order = %v, %v", first.Ref(), second.Ref())
	}
	if _, err := tree.GetPage(2); err == nil {
		t.Error("expected out of range error")
	}
}

func TestPageInheritance(t *testing.T) {
	r := nestedTree()
	tree := NewPageTree(r.objects[2].(core.Dict), r)
	pages, err := tree.Pages()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		page   *Page
		width  float64
		height float64
		rotate int
	}{
		{"inherits media box", pages[0], 612, 792, 0},
		{"own media box, inherited rotate", pages[1], 595.5, 842, 270},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := tt.page.Width()
			if err != nil {
				t.Fatal(err)
			}
			h, _ := tt.page.Height()
			if w != tt.width || h != tt.height {
				t.Errorf("size = %vx%v, want %vx%v", w, h, tt.width, tt.height)
			}
			if got := tt.page.Rotate(); got != tt.rotate {
				t.Errorf("Rotate = %d, want %d", got, tt.rotate)
			}
			res, err := tt.page.Resources()
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := res.GetDict("Font"); !ok {
				t.Error("resources not inherited from the root node")
			}
			crop, _ := tt.page.CropBox()
			if crop[2] != tt.width {
				t.Errorf("CropBox should default to MediaBox, got %v", crop)
			}
		})
	}
}

func TestPageContents(t *testing.T) {
	r := nestedTree()
	pages, _ := NewPageTree(r.objects[2].(core.Dict), r).Pages()

	refs, err := pages[0].ContentRefs()
	if err != nil || len(refs) != 1 || refs[0] != ref(6) {
		t.Errorf("ContentRefs = %v, %v", refs, err)
	}

	data, err := pages[1].ContentData()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "q\nQ\n" {
		t.Errorf("ContentData = %q", data)
	}

	annots, err := pages[1].Annots()
	if err != nil || annots != nil {
		t.Errorf("Annots = %v, %v", annots, err)
	}
}

func TestPageTreeCycle(t *testing.T) {
	r := newMockResolver()
	r.AddObject(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(3)}})
	r.AddObject(3, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(3)}})

	if _, err := NewPageTree(r.objects[2].(core.Dict), r).Pages(); err == nil {
		t.Error("expected cycle error")
	}
}

func TestPageMissingMediaBox(t *testing.T) {
	p := NewPage(ref(1), core.Dict{"Type": core.Name("Page")}, nil, newMockResolver())
	if _, err := p.MediaBox(); err == nil {
		t.Error("expected error")
	}
	res, err := p.Resources()
	if err != nil || len(res) != 0 {
		t.Errorf("Resources = %v, %v", res, err)
	}
}
