package writer

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tsawler/linksheet/core"
)

// header is the PDF 1.7 header followed by a binary marker comment.
const header = "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"

// WriteTo serializes the document.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	order, numbers := d.reachable()

	cw := &countingWriter{w: bufio.NewWriter(w)}
	cw.writeString(header)

	offsets := make([]int64, len(order))
	for i, old := range order {
		offsets[i] = cw.n
		fmt.Fprintf(cw, "%d 0 obj\n", i+1)
		if err := core.WriteObject(cw, renumber(d.objects[old], numbers)); err != nil {
			return cw.n, fmt.Errorf("object %d: %w", old, err)
		}
		cw.writeString("\nendobj\n")
	}

	xrefOffset := cw.n
	fmt.Fprintf(cw, "xref\n0 %d\n", len(order)+1)
	cw.writeString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(cw, "%010d 00000 n \n", off)
	}

	instance := uuid.New()
	trailer := core.Dict{
		"Size": core.Int(len(order) + 1),
		"Root": core.IndirectRef{Number: numbers[d.root.Number]},
		"ID":   core.Array{d.fileID, core.String(instance[:])},
	}
	if n, ok := numbers[d.info.Number]; ok && d.info.Number != 0 {
		trailer.Set("Info", core.IndirectRef{Number: n})
	}
	cw.writeString("trailer\n")
	if err := core.WriteObject(cw, trailer); err != nil {
		return cw.n, err
	}
	fmt.Fprintf(cw, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	if err := cw.w.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, cw.err
}

// Bytes returns the serialized document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile atomically replaces path with the serialized document.
func (d *Document) WriteFile(path string) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = d.WriteTo(tmp); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// reachable walks the object graph from the catalog and the info
// dictionary and assigns dense new numbers in visiting order.
func (d *Document) reachable() ([]int, map[int]int) {
	numbers := make(map[int]int)
	var order []int

	queue := []int{d.root.Number}
	if d.info.Number != 0 {
		queue = append(queue, d.info.Number)
	}
	for len(queue) > 0 {
		num := queue[0]
		queue = queue[1:]
		if _, seen := numbers[num]; seen {
			continue
		}
		obj, ok := d.objects[num]
		if !ok {
			continue
		}
		order = append(order, num)
		numbers[num] = len(order)
		collectRefs(obj, func(ref core.IndirectRef) {
			if _, seen := numbers[ref.Number]; !seen {
				queue = append(queue, ref.Number)
			}
		})
	}
	return order, numbers
}

func collectRefs(obj core.Object, visit func(core.IndirectRef)) {
	switch o := obj.(type) {
	case core.IndirectRef:
		visit(o)
	case core.Array:
		for _, item := range o {
			collectRefs(item, visit)
		}
	case core.Dict:
		for _, key := range o.Keys() {
			collectRefs(o[key], visit)
		}
	case *core.Stream:
		for _, key := range o.Dict.Keys() {
			if key != "Length" {
				collectRefs(o.Dict[key], visit)
			}
		}
	}
}

// renumber returns a copy of obj with references mapped to new numbers.
// References to objects that do not exist become null.
func renumber(obj core.Object, numbers map[int]int) core.Object {
	switch o := obj.(type) {
	case core.IndirectRef:
		n, ok := numbers[o.Number]
		if !ok {
			return core.Null{}
		}
		return core.IndirectRef{Number: n}
	case core.Array:
		out := make(core.Array, len(o))
		for i, item := range o {
			out[i] = renumber(item, numbers)
		}
		return out
	case core.Dict:
		out := make(core.Dict, len(o))
		for key, value := range o {
			out[key] = renumber(value, numbers)
		}
		return out
	case *core.Stream:
		dict := renumber(o.Dict, numbers).(core.Dict)
		// A stream length is always written directly.
		dict.Delete("Length")
		return &core.Stream{Dict: dict, Data: o.Data}
	}
	return obj
}

// countingWriter tracks byte offsets for the cross-reference table and
// keeps the first write error.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

func (c *countingWriter) writeString(s string) {
	c.Write([]byte(s))
}
