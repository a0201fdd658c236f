package reader

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/pages"
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader reads objects from a PDF held in memory.
type Reader struct {
	data      []byte
	xrefTable *core.XRefTable
	trailer   core.Dict
	version   PDFVersion
	repaired  bool
	objCache  map[int]core.Object
	objStms   map[int]*core.ObjectStream
	loading   map[int]bool
}

var _ pages.ObjectResolver = (*Reader)(nil)

var versionPattern = regexp.MustCompile(`^%PDF-(\d+)\.(\d+)`)

// Open reads the whole file and returns a Reader for it.
func Open(filename string) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return NewReader(data)
}

// NewReader parses the header and cross-reference data of a PDF. When the
// cross-reference data is unusable the object table is rebuilt by scanning
// the file.
func NewReader(data []byte) (*Reader, error) {
	r := &Reader{
		data:     data,
		objCache: make(map[int]core.Object),
		objStms:  make(map[int]*core.ObjectStream),
		loading:  make(map[int]bool),
	}

	version, err := parseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	r.version = version

	xref := core.NewXRefParser(data)
	table, err := xref.Load()
	if err != nil {
		rebuilt, rerr := xref.Rebuild()
		if rerr != nil {
			return nil, fmt.Errorf("failed to load xref: %w", err)
		}
		table = rebuilt
		r.repaired = true
	}
	r.xrefTable = table
	r.trailer = table.Trailer

	if r.trailer.Has("Encrypt") {
		return nil, fmt.Errorf("encrypted PDFs are not supported")
	}
	if !r.trailer.Has("Root") {
		if err := r.findRoot(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// parseHeader looks for %PDF-x.y in the first KiB; some files carry junk
// before the header.
func parseHeader(data []byte) (PDFVersion, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx == -1 {
		return PDFVersion{}, fmt.Errorf("invalid PDF header")
	}
	m := versionPattern.FindSubmatch(head[idx:])
	if m == nil {
		return PDFVersion{}, fmt.Errorf("invalid version format: %q", head[idx:min(idx+12, len(head))])
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

// findRoot locates a /Type /Catalog object for files whose trailer was lost.
func (r *Reader) findRoot() error {
	for _, num := range r.xrefTable.ObjectNumbers() {
		obj, err := r.GetObject(num)
		if err != nil {
			continue
		}
		if d, ok := obj.(core.Dict); ok {
			if typ, _ := d.GetName("Type"); typ == "Catalog" {
				r.trailer.Set("Root", core.IndirectRef{Number: num})
				return nil
			}
		}
	}
	return fmt.Errorf("document has no catalog")
}

// Version returns the PDF version
func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the trailer dictionary
func (r *Reader) Trailer() core.Dict {
	return r.trailer
}

// Repaired reports whether the object table had to be rebuilt.
func (r *Reader) Repaired() bool {
	return r.repaired
}

// XRefTable returns the cross-reference table
func (r *Reader) XRefTable() *core.XRefTable {
	return r.xrefTable
}

// ObjectNumbers returns the numbers of all objects in use.
func (r *Reader) ObjectNumbers() []int {
	return r.xrefTable.ObjectNumbers()
}

// GetObject loads an object by its number
func (r *Reader) GetObject(objNum int) (core.Object, error) {
	if obj, ok := r.objCache[objNum]; ok {
		return obj, nil
	}

	entry, ok := r.xrefTable.Get(objNum)
	if !ok || !entry.InUse {
		// References to missing objects are treated as null.
		return core.Null{}, nil
	}
	if r.loading[objNum] {
		return nil, fmt.Errorf("object %d refers to itself while loading", objNum)
	}
	r.loading[objNum] = true
	defer delete(r.loading, objNum)

	var obj core.Object
	var err error
	if entry.Compressed {
		obj, err = r.loadCompressed(objNum, entry)
	} else {
		obj, err = r.loadAt(objNum, entry.Offset)
	}
	if err != nil {
		return nil, err
	}

	r.objCache[objNum] = obj
	return obj, nil
}

func (r *Reader) loadAt(objNum int, offset int64) (core.Object, error) {
	if offset < 0 || offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("object %d offset %d outside file", objNum, offset)
	}

	parser := core.NewParser(bytes.NewReader(r.data[offset:]))
	parser.SetReferenceResolver(r)
	indObj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse object %d: %w", objNum, err)
	}
	if indObj.Ref.Number != objNum {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", objNum, indObj.Ref.Number)
	}
	return indObj.Object, nil
}

func (r *Reader) loadCompressed(objNum int, entry *core.XRefEntry) (core.Object, error) {
	stm, ok := r.objStms[entry.StreamObj]
	if !ok {
		obj, err := r.GetObject(entry.StreamObj)
		if err != nil {
			return nil, fmt.Errorf("failed to load object stream %d: %w", entry.StreamObj, err)
		}
		stream, ok := obj.(*core.Stream)
		if !ok {
			return nil, fmt.Errorf("object stream %d is %T", entry.StreamObj, obj)
		}
		stm, err = core.NewObjectStream(stream)
		if err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.StreamObj, err)
		}
		r.objStms[entry.StreamObj] = stm
	}

	obj, num, err := stm.GetObjectByIndex(entry.Index)
	if err == nil && num == objNum {
		return obj, nil
	}
	// The index is only a hint; fall back to a search by number.
	obj, _, err = stm.GetObjectByNumber(objNum)
	if err != nil {
		return nil, fmt.Errorf("object %d in stream %d: %w", objNum, entry.StreamObj, err)
	}
	return obj, nil
}

// ResolveReference resolves an indirect reference
func (r *Reader) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return r.GetObject(ref.Number)
}

// Resolve resolves obj if it is an indirect reference and returns it as-is
// otherwise.
func (r *Reader) Resolve(obj core.Object) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		return r.ResolveReference(ref)
	}
	return obj, nil
}

// GetCatalog returns the document catalog (root object)
func (r *Reader) GetCatalog() (core.Dict, error) {
	ref, ok := r.trailer.GetIndirectRef("Root")
	if !ok {
		return nil, fmt.Errorf("invalid /Root entry: %v", r.trailer.Get("Root"))
	}
	obj, err := r.ResolveReference(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", obj)
	}
	return catalog, nil
}

// GetInfo returns the document info dictionary, or nil if there is none.
func (r *Reader) GetInfo() (core.Dict, error) {
	ref, ok := r.trailer.GetIndirectRef("Info")
	if !ok {
		return nil, nil
	}
	obj, err := r.ResolveReference(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve info: %w", err)
	}
	info, _ := obj.(core.Dict)
	return info, nil
}

// PageTree returns the document page tree.
func (r *Reader) PageTree() (*pages.PageTree, error) {
	catalog, err := r.GetCatalog()
	if err != nil {
		return nil, err
	}
	return pages.NewCatalog(catalog, r).PageTree()
}

// PageCount returns the number of pages in the PDF
func (r *Reader) PageCount() (int, error) {
	tree, err := r.PageTree()
	if err != nil {
		return 0, err
	}
	return tree.Count()
}

// GetPage returns the page at the given index (0-based)
func (r *Reader) GetPage(index int) (*pages.Page, error) {
	tree, err := r.PageTree()
	if err != nil {
		return nil, err
	}
	return tree.GetPage(index)
}
