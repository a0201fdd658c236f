package pages

import (
	"fmt"

	"github.com/tsawler/linksheet/core"
)

// ObjectResolver resolves indirect references.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// inheritable lists the page attributes that may be set on a /Pages node.
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog creates a new catalog from a dictionary
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{dict: dict, resolver: resolver}
}

// Type returns the catalog type (should be "Catalog")
func (c *Catalog) Type() string {
	name, _ := c.dict.GetName("Type")
	return string(name)
}

// PagesRef returns the reference to the page tree root.
func (c *Catalog) PagesRef() (core.IndirectRef, error) {
	ref, ok := c.dict.GetIndirectRef("Pages")
	if !ok {
		return core.IndirectRef{}, fmt.Errorf("catalog missing /Pages reference")
	}
	return ref, nil
}

// PageTree returns the document page tree.
func (c *Catalog) PageTree() (*PageTree, error) {
	ref, err := c.PagesRef()
	if err != nil {
		return nil, err
	}
	obj, err := c.resolver.ResolveReference(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Pages: %w", err)
	}
	root, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", obj)
	}
	return NewPageTree(root, c.resolver), nil
}

// PageTree represents the PDF page tree
type PageTree struct {
	root     core.Dict
	resolver ObjectResolver
	pages    []*Page
}

// NewPageTree creates a new page tree from the root pages dictionary
func NewPageTree(root core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{root: root, resolver: resolver}
}

// Count returns the number of pages found by walking the tree. /Count is
// not trusted since damaged files often get it wrong.
func (t *PageTree) Count() (int, error) {
	pages, err := t.Pages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// GetPage returns the page at the given index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	pages, err := t.Pages()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(pages))
	}
	return pages[index], nil
}

// Pages returns all pages in document order.
func (t *PageTree) Pages() ([]*Page, error) {
	if t.pages != nil {
		return t.pages, nil
	}

	t.pages = make([]*Page, 0)
	visited := make(map[int]bool)
	if err := t.walk(t.root, core.Dict{}, visited); err != nil {
		t.pages = nil
		return nil, fmt.Errorf("failed to traverse page tree: %w", err)
	}
	return t.pages, nil
}

// walk visits node's kids. inherited holds the attributes collected from
// node's ancestors.
func (t *PageTree) walk(node core.Dict, inherited core.Dict, visited map[int]bool) error {
	attrs := inherited.Clone()
	for _, key := range inheritable {
		if v := node.Get(key); v != nil {
			attrs[key] = v
		}
	}

	kidsObj, err := t.resolver.Resolve(node.Get("Kids"))
	if err != nil {
		return fmt.Errorf("failed to resolve /Kids: %w", err)
	}
	kids, ok := kidsObj.(core.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", kidsObj)
	}

	for i, kid := range kids {
		ref, ok := kid.(core.IndirectRef)
		if !ok {
			return fmt.Errorf("kid %d is not an indirect reference: %T", i, kid)
		}
		if visited[ref.Number] {
			return fmt.Errorf("page tree cycle at object %d", ref.Number)
		}
		visited[ref.Number] = true

		obj, err := t.resolver.ResolveReference(ref)
		if err != nil {
			return fmt.Errorf("failed to resolve kid %d: %w", i, err)
		}
		dict, ok := obj.(core.Dict)
		if !ok {
			return fmt.Errorf("invalid kid type: %T", obj)
		}

		typ, _ := dict.GetName("Type")
		switch {
		case typ == "Pages" || (typ == "" && dict.Has("Kids")):
			if err := t.walk(dict, attrs, visited); err != nil {
				return err
			}
		case typ == "Page" || typ == "":
			t.pages = append(t.pages, &Page{
				ref:       ref,
				dict:      dict,
				inherited: attrs,
				resolver:  t.resolver,
			})
		default:
			return fmt.Errorf("unexpected page node type: %s", typ)
		}
	}
	return nil
}

// Page represents a single PDF page
type Page struct {
	ref       core.IndirectRef
	dict      core.Dict
	inherited core.Dict
	resolver  ObjectResolver
}

// NewPage creates a page. inherited holds attributes from ancestor nodes and
// may be nil.
func NewPage(ref core.IndirectRef, dict, inherited core.Dict, resolver ObjectResolver) *Page {
	if inherited == nil {
		inherited = core.Dict{}
	}
	return &Page{ref: ref, dict: dict, inherited: inherited, resolver: resolver}
}

// Ref returns the page's indirect reference.
func (p *Page) Ref() core.IndirectRef { return p.ref }

// Dict returns the page dictionary itself, without inherited attributes.
func (p *Page) Dict() core.Dict { return p.dict }

func (p *Page) attr(key string) core.Object {
	if v := p.dict.Get(key); v != nil {
		return v
	}
	return p.inherited.Get(key)
}

// MediaBox returns the page media box [x1 y1 x2 y2]
func (p *Page) MediaBox() ([]float64, error) {
	return p.getBox("MediaBox")
}

// CropBox returns the crop box, defaulting to the media box.
func (p *Page) CropBox() ([]float64, error) {
	if p.attr("CropBox") == nil {
		return p.MediaBox()
	}
	return p.getBox("CropBox")
}

func (p *Page) getBox(name string) ([]float64, error) {
	obj := p.attr(name)
	if obj == nil {
		return nil, fmt.Errorf("%s not found", name)
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	arr, ok := resolved.(core.Array)
	if !ok || len(arr) != 4 {
		return nil, fmt.Errorf("invalid %s: %v", name, resolved)
	}

	box := make([]float64, 4)
	for i, elem := range arr {
		v, ok := core.ToFloat(elem)
		if !ok {
			return nil, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
		box[i] = v
	}
	// Normalise so that box[0] <= box[2] and box[1] <= box[3].
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	return box, nil
}

// Resources returns the (possibly inherited) resources dictionary. A page
// without resources gets an empty dictionary.
func (p *Page) Resources() (core.Dict, error) {
	obj := p.attr("Resources")
	if obj == nil {
		return core.Dict{}, nil
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", resolved)
	}
	return dict, nil
}

// ContentRefs returns the /Contents entry as a list of objects, without
// resolving the individual streams.
func (p *Page) ContentRefs() (core.Array, error) {
	obj := p.dict.Get("Contents")
	switch v := obj.(type) {
	case nil:
		return nil, nil
	case core.IndirectRef:
		resolved, err := p.resolver.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Contents: %w", err)
		}
		if arr, ok := resolved.(core.Array); ok {
			return arr, nil
		}
		return core.Array{v}, nil
	case core.Array:
		return v, nil
	}
	return nil, fmt.Errorf("invalid Contents type: %T", obj)
}

// Contents returns the page content streams in order.
func (p *Page) Contents() ([]*core.Stream, error) {
	refs, err := p.ContentRefs()
	if err != nil {
		return nil, err
	}
	streams := make([]*core.Stream, 0, len(refs))
	for i, ref := range refs {
		obj, err := p.resolver.Resolve(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
		}
		if s, ok := obj.(*core.Stream); ok {
			streams = append(streams, s)
		}
	}
	return streams, nil
}

// ContentData decodes and concatenates the page content streams. Streams
// are joined with a newline since a token may not span two streams.
func (p *Page) ContentData() ([]byte, error) {
	streams, err := p.Contents()
	if err != nil {
		return nil, err
	}
	var data []byte
	for i, s := range streams {
		decoded, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("failed to decode content stream %d: %w", i, err)
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	return data, nil
}

// Annots returns the page annotation array, resolved one level.
func (p *Page) Annots() (core.Array, error) {
	obj := p.dict.Get("Annots")
	if obj == nil {
		return nil, nil
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Annots: %w", err)
	}
	arr, ok := resolved.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid Annots type: %T", resolved)
	}
	return arr, nil
}

// Rotate returns the page rotation (0, 90, 180, or 270)
func (p *Page) Rotate() int {
	rotate, ok := p.attr("Rotate").(core.Int)
	if !ok {
		return 0
	}
	r := int(rotate) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// Width returns the page width (from MediaBox)
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the page height (from MediaBox)
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}
