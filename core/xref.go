package core

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// XRefEntry represents a single cross-reference entry.
type XRefEntry struct {
	Offset     int64 // Byte offset of an uncompressed object
	Generation int
	InUse      bool

	// Compressed entries live inside an object stream.
	Compressed bool
	StreamObj  int // Object number of the containing object stream
	Index      int // Index of the object within that stream
}

// XRefTable maps object numbers to their locations.
type XRefTable struct {
	Entries map[int]*XRefEntry
	Trailer Dict
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]*XRefEntry),
		Trailer: make(Dict),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (*XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry *XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// ObjectNumbers returns the numbers of all in-use objects in ascending order.
func (x *XRefTable) ObjectNumbers() []int {
	nums := make([]int, 0, len(x.Entries))
	for n, e := range x.Entries {
		if e.InUse {
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	return nums
}

// XRefParser locates and parses cross-reference data in an in-memory PDF.
type XRefParser struct {
	data []byte
}

// NewXRefParser creates a new XRef parser over the complete file contents.
func NewXRefParser(data []byte) *XRefParser {
	return &XRefParser{data: data}
}

// FindXRef returns the offset after the last "startxref" keyword.
func (x *XRefParser) FindXRef() (int64, error) {
	tail := x.data
	if len(tail) > 1024 {
		tail = tail[len(tail)-1024:]
	}

	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx == -1 {
		return 0, fmt.Errorf("startxref not found in PDF")
	}

	fields := bytes.Fields(tail[idx+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("invalid startxref format")
	}
	offset, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid xref offset: %w", err)
	}
	if offset < 0 || offset >= int64(len(x.data)) {
		return 0, fmt.Errorf("xref offset %d outside file of %d bytes", offset, len(x.data))
	}
	return offset, nil
}

// ParseXRef parses the cross-reference section at offset. Both classic
// tables and PDF 1.5 cross-reference streams are accepted.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	if offset < 0 || offset >= int64(len(x.data)) {
		return nil, fmt.Errorf("xref offset %d outside file", offset)
	}

	section := x.data[offset:]
	trimmed := bytes.TrimLeft(section, " \t\r\n\f\x00")
	if bytes.HasPrefix(trimmed, []byte("xref")) {
		return x.parseTable(section)
	}
	return x.parseStream(section)
}

// parseTable reads "xref" subsections followed by "trailer <<...>>".
func (x *XRefParser) parseTable(section []byte) (*XRefTable, error) {
	lexer := NewLexer(bytes.NewReader(section))

	tok, err := lexer.NextToken()
	if err != nil || tok.Type != TokenKeyword || string(tok.Value) != "xref" {
		return nil, fmt.Errorf("expected 'xref' keyword")
	}

	table := NewXRefTable()
	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("failed to read xref subsection: %w", err)
		}
		if tok.Type == TokenKeyword && string(tok.Value) == "trailer" {
			break
		}
		if tok.Type != TokenInteger {
			return nil, fmt.Errorf("invalid subsection header at %d: %q", tok.Pos, tok.Value)
		}
		first, _ := strconv.Atoi(string(tok.Value))

		tok, err = lexer.NextToken()
		if err != nil || tok.Type != TokenInteger {
			return nil, fmt.Errorf("invalid subsection count")
		}
		count, _ := strconv.Atoi(string(tok.Value))

		for i := 0; i < count; i++ {
			entry, err := readTableEntry(lexer)
			if err != nil {
				return nil, fmt.Errorf("failed to parse xref entry %d: %w", first+i, err)
			}
			// Earlier subsections win if an object is listed twice.
			if _, seen := table.Entries[first+i]; !seen {
				table.Set(first+i, entry)
			}
		}
	}

	parser := NewParser(bytes.NewReader(section[lexer.Pos():]))
	obj, err := parser.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("trailer is not a dictionary, got %T", obj)
	}
	table.Trailer = trailer

	return table, nil
}

// readTableEntry reads "offset generation n|f".
func readTableEntry(lexer *Lexer) (*XRefEntry, error) {
	offTok, err := lexer.NextToken()
	if err != nil || offTok.Type != TokenInteger {
		return nil, fmt.Errorf("expected offset")
	}
	genTok, err := lexer.NextToken()
	if err != nil || genTok.Type != TokenInteger {
		return nil, fmt.Errorf("expected generation")
	}
	flagTok, err := lexer.NextToken()
	if err != nil || flagTok.Type != TokenKeyword {
		return nil, fmt.Errorf("expected in-use flag")
	}

	offset, err := strconv.ParseInt(string(offTok.Value), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid offset %q: %w", offTok.Value, err)
	}
	generation, err := strconv.Atoi(string(genTok.Value))
	if err != nil {
		return nil, fmt.Errorf("invalid generation %q: %w", genTok.Value, err)
	}

	switch string(flagTok.Value) {
	case "n":
		return &XRefEntry{Offset: offset, Generation: generation, InUse: true}, nil
	case "f":
		return &XRefEntry{Offset: offset, Generation: generation}, nil
	}
	return nil, fmt.Errorf("invalid in-use flag: %q", flagTok.Value)
}

// parseStream reads a /Type /XRef stream. Its dictionary doubles as the
// trailer.
func (x *XRefParser) parseStream(section []byte) (*XRefTable, error) {
	parser := NewParser(bytes.NewReader(section))
	indirect, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse xref stream: %w", err)
	}
	stream, ok := indirect.Object.(*Stream)
	if !ok {
		return nil, fmt.Errorf("object at xref offset is %T, not a stream", indirect.Object)
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "XRef" {
		return nil, fmt.Errorf("stream at xref offset is not /Type /XRef")
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}

	w, _ := stream.Dict.GetArray("W")
	widths, err := xrefWidths(w)
	if err != nil {
		return nil, err
	}

	size, _ := stream.Dict.GetInt("Size")
	index, ok := stream.Dict.GetArray("Index")
	if !ok {
		index = Array{Int(0), Int(size)}
	}
	if len(index)%2 != 0 {
		return nil, fmt.Errorf("xref stream /Index has odd length %d", len(index))
	}

	rowLen := widths[0] + widths[1] + widths[2]
	table := NewXRefTable()
	pos := 0
	for i := 0; i < len(index); i += 2 {
		first, ok1 := index[i].(Int)
		count, ok2 := index[i+1].(Int)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("xref stream /Index entries must be integers")
		}
		for j := 0; j < int(count); j++ {
			if pos+rowLen > len(data) {
				return nil, fmt.Errorf("xref stream truncated at object %d", int(first)+j)
			}
			row := data[pos : pos+rowLen]
			pos += rowLen

			typ := int64(1)
			if widths[0] > 0 {
				typ = readField(row[:widths[0]])
			}
			f2 := readField(row[widths[0] : widths[0]+widths[1]])
			f3 := readField(row[widths[0]+widths[1]:])

			var entry *XRefEntry
			switch typ {
			case 0:
				entry = &XRefEntry{Offset: f2, Generation: int(f3)}
			case 1:
				entry = &XRefEntry{Offset: f2, Generation: int(f3), InUse: true}
			case 2:
				entry = &XRefEntry{InUse: true, Compressed: true, StreamObj: int(f2), Index: int(f3)}
			default:
				// Unknown types are treated as null references.
				continue
			}
			table.Set(int(first)+j, entry)
		}
	}

	table.Trailer = stream.Dict.Clone()
	return table, nil
}

func xrefWidths(w Array) ([3]int, error) {
	var widths [3]int
	if len(w) != 3 {
		return widths, fmt.Errorf("xref stream /W must have 3 entries, got %d", len(w))
	}
	for i, v := range w {
		n, ok := v.(Int)
		if !ok || n < 0 || n > 8 {
			return widths, fmt.Errorf("invalid xref stream /W entry: %v", v)
		}
		widths[i] = int(n)
	}
	return widths, nil
}

// readField decodes a big-endian unsigned integer.
func readField(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// Load parses the newest cross-reference section and every older section
// reachable through /Prev and /XRefStm, and merges them so that newer
// entries win.
func (x *XRefParser) Load() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, fmt.Errorf("failed to find xref: %w", err)
	}

	var tables []*XRefTable
	visited := make(map[int64]bool)
	for {
		if visited[offset] {
			break
		}
		visited[offset] = true

		table, err := x.ParseXRef(offset)
		if err != nil {
			if len(tables) == 0 {
				return nil, fmt.Errorf("failed to parse xref at %d: %w", offset, err)
			}
			// A broken older section only loses history.
			break
		}
		tables = append(tables, table)

		// Hybrid files carry compressed entries in a side stream.
		if stm, ok := table.Trailer.GetInt("XRefStm"); ok && !visited[int64(stm)] {
			visited[int64(stm)] = true
			if side, err := x.ParseXRef(int64(stm)); err == nil {
				side.Trailer = nil
				tables = append(tables, side)
			}
		}

		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			break
		}
		offset = int64(prev)
	}

	// tables is newest first; merge oldest first so newer entries override.
	for i, j := 0, len(tables)-1; i < j; i, j = i+1, j-1 {
		tables[i], tables[j] = tables[j], tables[i]
	}
	return MergeXRefTables(tables...), nil
}

// MergeXRefTables merges tables given oldest first. Later entries override
// earlier ones and the last non-nil trailer is kept.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, table := range tables {
		for objNum, entry := range table.Entries {
			merged.Set(objNum, entry)
		}
		if table.Trailer != nil {
			merged.Trailer = table.Trailer
		}
	}
	return merged
}

var objHeader = regexp.MustCompile(`(?m)(?:^|[\r\n\s])(\d+)[ \t\r\n]+(\d+)[ \t\r\n]+obj\b`)

// Rebuild scans the whole file for "n g obj" headers and returns a table
// built from them. It is the fallback for files whose xref data is damaged.
// The trailer is taken from the last "trailer" dictionary, if any.
func (x *XRefParser) Rebuild() (*XRefTable, error) {
	table := NewXRefTable()
	for _, m := range objHeader.FindAllSubmatchIndex(x.data, -1) {
		num, err1 := strconv.Atoi(string(x.data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(x.data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		// Later definitions override earlier ones, as with incremental updates.
		table.Set(num, &XRefEntry{Offset: int64(m[2]), Generation: gen, InUse: true})
	}
	if table.Size() == 0 {
		return nil, fmt.Errorf("no objects found while rebuilding xref")
	}

	if idx := bytes.LastIndex(x.data, []byte("trailer")); idx != -1 {
		parser := NewParser(bytes.NewReader(x.data[idx+len("trailer"):]))
		if obj, err := parser.ParseObject(); err == nil {
			if dict, ok := obj.(Dict); ok {
				table.Trailer = dict
			}
		}
	}
	return table, nil
}
