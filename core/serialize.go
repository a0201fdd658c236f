package core

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// WriteObject writes obj in PDF syntax. Dictionary keys are written in
// sorted order and a stream's /Length is always set to len(Data).
func WriteObject(w io.Writer, obj Object) error {
	bw := bufio.NewWriter(w)
	if err := writeObject(bw, obj); err != nil {
		return err
	}
	return bw.Flush()
}

// Serialize returns obj in PDF syntax.
func Serialize(obj Object) []byte {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = WriteObject(&buf, obj)
	return buf.Bytes()
}

func writeObject(w *bufio.Writer, obj Object) error {
	switch o := obj.(type) {
	case nil, Null:
		w.WriteString("null")
	case Bool:
		w.WriteString(strconv.FormatBool(bool(o)))
	case Int:
		w.WriteString(strconv.FormatInt(int64(o), 10))
	case Real:
		w.WriteString(formatReal(float64(o)))
	case String:
		writeString(w, []byte(o))
	case Name:
		writeName(w, string(o))
	case IndirectRef:
		fmt.Fprintf(w, "%d %d R", o.Number, o.Generation)
	case Array:
		w.WriteByte('[')
		for i, item := range o {
			if i > 0 {
				w.WriteByte(' ')
			}
			if err := writeObject(w, item); err != nil {
				return err
			}
		}
		w.WriteByte(']')
	case Dict:
		return writeDict(w, o)
	case *Stream:
		dict := o.Dict.Clone()
		dict.Set("Length", Int(len(o.Data)))
		if err := writeDict(w, dict); err != nil {
			return err
		}
		w.WriteString("\nstream\n")
		w.Write(o.Data)
		w.WriteString("\nendstream")
	default:
		return fmt.Errorf("cannot serialize %T", obj)
	}
	return nil
}

func writeDict(w *bufio.Writer, d Dict) error {
	w.WriteString("<<")
	for _, key := range d.Keys() {
		writeName(w, key)
		w.WriteByte(' ')
		if err := writeObject(w, d[key]); err != nil {
			return fmt.Errorf("key /%s: %w", key, err)
		}
	}
	w.WriteString(">>")
	return nil
}

// writeString writes a literal string, escaping delimiters and control bytes.
func writeString(w *bufio.Writer, s []byte) {
	w.WriteByte('(')
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			w.WriteByte('\\')
			w.WriteByte(c)
		case '\n':
			w.WriteString(`\n`)
		case '\r':
			w.WriteString(`\r`)
		case '\t':
			w.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(w, `\%03o`, c)
			} else {
				w.WriteByte(c)
			}
		}
	}
	w.WriteByte(')')
}

// writeName writes /name, escaping bytes outside the regular set as #xx.
func writeName(w *bufio.Writer, name string) {
	w.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			fmt.Fprintf(w, "#%02X", c)
			continue
		}
		w.WriteByte(c)
	}
}
