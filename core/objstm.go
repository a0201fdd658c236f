package core

import (
	"bytes"
	"fmt"
)

// ObjectStream gives access to the objects packed into a /Type /ObjStm
// stream (PDF 1.5+).
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	extends *IndirectRef
	objects map[int]Object
	offsets []objStmOffset
	decoded []byte
}

type objStmOffset struct {
	ObjNum int
	Offset int // relative to /First
}

// NewObjectStream validates the stream dictionary. The data is decoded
// lazily on first access.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}
	if typ, _ := stream.Dict.GetName("Type"); typ != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream, got type: %v", stream.Dict.Get("Type"))
	}

	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N: %v", stream.Dict.Get("N"))
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First: %v", stream.Dict.Get("First"))
	}

	var extends *IndirectRef
	if obj := stream.Dict.Get("Extends"); obj != nil {
		ref, ok := obj.(IndirectRef)
		if !ok {
			return nil, fmt.Errorf("invalid /Extends type: %T", obj)
		}
		extends = &ref
	}

	return &ObjectStream{
		stream:  stream,
		n:       int(n),
		first:   int(first),
		extends: extends,
		objects: make(map[int]Object),
	}, nil
}

// N returns the number of objects stored in the stream.
func (os *ObjectStream) N() int { return os.n }

// Extends returns the object stream this one extends, or nil.
func (os *ObjectStream) Extends() *IndirectRef { return os.extends }

func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}

	decoded, err := os.stream.Decode()
	if err != nil {
		return fmt.Errorf("failed to decode object stream: %w", err)
	}
	if os.first > len(decoded) {
		return fmt.Errorf("/First (%d) exceeds decoded length (%d)", os.first, len(decoded))
	}

	// Header: N pairs of "objNum offset".
	lexer := NewLexer(bytes.NewReader(decoded[:os.first]))
	offsets := make([]objStmOffset, 0, os.n)
	for i := 0; i < os.n; i++ {
		num, err1 := nextInt(lexer)
		off, err2 := nextInt(lexer)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("malformed object stream header at pair %d", i)
		}
		offsets = append(offsets, objStmOffset{ObjNum: num, Offset: off})
	}

	os.decoded = decoded
	os.offsets = offsets
	return nil
}

func nextInt(lexer *Lexer) (int, error) {
	tok, err := lexer.NextToken()
	if err != nil {
		return 0, err
	}
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected integer, got %q", tok.Value)
	}
	var v int
	for _, c := range tok.Value {
		if !isDigit(c) {
			return 0, fmt.Errorf("expected unsigned integer, got %q", tok.Value)
		}
		v = v*10 + int(c-'0')
	}
	return v, nil
}

// GetObjectByIndex returns the object at position index in the header along
// with its object number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}
	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}

	num := os.offsets[index].ObjNum
	if obj, ok := os.objects[index]; ok {
		return obj, num, nil
	}

	start := os.first + os.offsets[index].Offset
	end := len(os.decoded)
	if index+1 < len(os.offsets) {
		end = os.first + os.offsets[index+1].Offset
	}
	if start >= len(os.decoded) || end > len(os.decoded) || start > end {
		return nil, 0, fmt.Errorf("object %d has bad bounds [%d, %d) in stream of %d bytes", num, start, end, len(os.decoded))
	}

	obj, err := NewParser(bytes.NewReader(os.decoded[start:end])).ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d: %w", index, err)
	}
	os.objects[index] = obj
	return obj, num, nil
}

// GetObjectByNumber finds an object by number and returns it with its index.
func (os *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}
	for i, entry := range os.offsets {
		if entry.ObjNum == objNum {
			obj, _, err := os.GetObjectByIndex(i)
			return obj, i, err
		}
	}
	return nil, 0, fmt.Errorf("object %d not found in object stream", objNum)
}

// ObjectNumbers lists the object numbers stored in this stream in header order.
func (os *ObjectStream) ObjectNumbers() ([]int, error) {
	if err := os.decode(); err != nil {
		return nil, err
	}
	nums := make([]int, len(os.offsets))
	for i, entry := range os.offsets {
		nums[i] = entry.ObjNum
	}
	return nums, nil
}
