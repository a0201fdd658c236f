package writer

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/pages"
	"github.com/tsawler/linksheet/reader"
)

// Document is an in-memory PDF whose objects can be read and replaced.
// Generation numbers of loaded objects are ignored; every object is written
// with generation 0.
type Document struct {
	objects map[int]core.Object
	nextNum int
	root    core.IndirectRef
	info    core.IndirectRef
	fileID  core.String
}

var _ pages.ObjectResolver = (*Document)(nil)

// New creates a document with an empty page tree.
func New() *Document {
	d := &Document{
		objects: make(map[int]core.Object),
		nextNum: 1,
		fileID:  newID(),
	}
	tree := d.Add(core.Dict{
		"Type":  core.Name("Pages"),
		"Kids":  core.Array{},
		"Count": core.Int(0),
	})
	d.root = d.Add(core.Dict{
		"Type":  core.Name("Catalog"),
		"Pages": tree,
	})
	return d
}

// Open loads the PDF at path.
func Open(path string) (*Document, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	return FromReader(r)
}

// Read loads a PDF held in memory.
func Read(data []byte) (*Document, error) {
	r, err := reader.NewReader(data)
	if err != nil {
		return nil, err
	}
	return FromReader(r)
}

// FromReader copies every live object out of r. Object and cross-reference
// streams are skipped since their contents are rewritten on output.
func FromReader(r *reader.Reader) (*Document, error) {
	d := &Document{
		objects: make(map[int]core.Object),
		nextNum: 1,
	}

	for _, num := range r.ObjectNumbers() {
		obj, err := r.GetObject(num)
		if err != nil {
			return nil, fmt.Errorf("failed to load object %d: %w", num, err)
		}
		if s, ok := obj.(*core.Stream); ok {
			if typ, _ := s.Dict.GetName("Type"); typ == "ObjStm" || typ == "XRef" {
				continue
			}
		}
		d.objects[num] = obj
		if num >= d.nextNum {
			d.nextNum = num + 1
		}
	}

	trailer := r.Trailer()
	root, ok := trailer.GetIndirectRef("Root")
	if !ok {
		return nil, fmt.Errorf("trailer has no catalog reference")
	}
	if _, ok := d.objects[root.Number]; !ok {
		return nil, fmt.Errorf("catalog object %d is missing", root.Number)
	}
	d.root = root
	if info, ok := trailer.GetIndirectRef("Info"); ok {
		if _, ok := d.objects[info.Number].(core.Dict); ok {
			d.info = info
		}
	}

	d.fileID = newID()
	if ids, ok := trailer.GetArray("ID"); ok && len(ids) == 2 {
		if first, ok := ids[0].(core.String); ok && len(first) > 0 {
			d.fileID = first
		}
	}
	return d, nil
}

// newID returns 16 random bytes for the file identifier.
func newID() core.String {
	id := uuid.New()
	return core.String(id[:])
}

// Add stores obj under a new object number.
func (d *Document) Add(obj core.Object) core.IndirectRef {
	ref := core.IndirectRef{Number: d.nextNum}
	d.objects[ref.Number] = obj
	d.nextNum++
	return ref
}

// Set replaces the object ref points to.
func (d *Document) Set(ref core.IndirectRef, obj core.Object) {
	d.objects[ref.Number] = obj
	if ref.Number >= d.nextNum {
		d.nextNum = ref.Number + 1
	}
}

// Get returns the object stored under num.
func (d *Document) Get(num int) (core.Object, bool) {
	obj, ok := d.objects[num]
	return obj, ok
}

// Len returns the number of stored objects.
func (d *Document) Len() int {
	return len(d.objects)
}

// ObjectNumbers returns the stored object numbers in ascending order.
func (d *Document) ObjectNumbers() []int {
	nums := make([]int, 0, len(d.objects))
	for num := range d.objects {
		nums = append(nums, num)
	}
	sort.Ints(nums)
	return nums
}

// ResolveReference returns the referenced object, or null when it does not
// exist.
func (d *Document) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	obj, ok := d.objects[ref.Number]
	if !ok {
		return core.Null{}, nil
	}
	return obj, nil
}

// Resolve follows obj if it is an indirect reference.
func (d *Document) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return d.ResolveReference(ref)
	}
	return obj, nil
}

// Root returns the reference to the document catalog.
func (d *Document) Root() core.IndirectRef {
	return d.root
}

// Catalog returns the document catalog.
func (d *Document) Catalog() (core.Dict, error) {
	catalog, ok := d.objects[d.root.Number].(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog object %d is not a dictionary", d.root.Number)
	}
	return catalog, nil
}

// PageTree returns the page tree.
func (d *Document) PageTree() (*pages.PageTree, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return nil, err
	}
	return pages.NewCatalog(catalog, d).PageTree()
}

// PageCount returns the number of pages.
func (d *Document) PageCount() (int, error) {
	tree, err := d.PageTree()
	if err != nil {
		return 0, err
	}
	return tree.Count()
}

// Page returns the page at index (0-based).
func (d *Document) Page(index int) (*pages.Page, error) {
	tree, err := d.PageTree()
	if err != nil {
		return nil, err
	}
	return tree.GetPage(index)
}

// AddPage appends a page of the given size to the root of the page tree.
func (d *Document) AddPage(width, height float64, content []byte, resources core.Dict) (core.IndirectRef, error) {
	catalog, err := d.Catalog()
	if err != nil {
		return core.IndirectRef{}, err
	}
	treeRef, ok := catalog.GetIndirectRef("Pages")
	if !ok {
		return core.IndirectRef{}, fmt.Errorf("catalog has no page tree reference")
	}
	tree, ok := d.objects[treeRef.Number].(core.Dict)
	if !ok {
		return core.IndirectRef{}, fmt.Errorf("page tree object %d is not a dictionary", treeRef.Number)
	}

	if resources == nil {
		resources = core.Dict{}
	}
	contentRef := d.Add(core.NewStream(core.Dict{}, content))
	pageRef := d.Add(core.Dict{
		"Type":      core.Name("Page"),
		"Parent":    treeRef,
		"MediaBox":  core.Array{core.Int(0), core.Int(0), core.Real(width), core.Real(height)},
		"Resources": resources,
		"Contents":  contentRef,
	})

	kids, _ := tree.GetArray("Kids")
	tree.Set("Kids", append(kids, pageRef))
	count, _ := tree.GetInt("Count")
	tree.Set("Count", count+1)
	return pageRef, nil
}

// SetInfo sets a text entry in the document information dictionary,
// creating the dictionary if needed.
func (d *Document) SetInfo(key, value string) {
	d.infoDict().Set(key, core.String(value))
}

// SetModified stamps /ModDate, and /CreationDate when it is missing.
func (d *Document) SetModified(t time.Time) {
	info := d.infoDict()
	date := core.String(FormatDate(t))
	info.Set("ModDate", date)
	if !info.Has("CreationDate") {
		info.Set("CreationDate", date)
	}
}

func (d *Document) infoDict() core.Dict {
	if info, ok := d.objects[d.info.Number].(core.Dict); ok && d.info.Number != 0 {
		return info
	}
	info := core.Dict{}
	d.info = d.Add(info)
	return info
}

// Info returns the information dictionary, or nil when there is none.
func (d *Document) Info() core.Dict {
	if d.info.Number == 0 {
		return nil
	}
	info, _ := d.objects[d.info.Number].(core.Dict)
	return info
}

// FormatDate renders t as a PDF date string.
func FormatDate(t time.Time) string {
	t = t.UTC()
	return "D:" + t.Format("20060102150405") + "Z"
}
