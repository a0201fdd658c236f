// Package contentstream reads and writes PDF content streams.
//
// A content stream is a flat sequence of operands followed by an operator:
//
//	ops, err := contentstream.NewParser(data).Parse()
//	for _, op := range ops {
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Writer produces the same representation in the other direction and is
// used to build overlay content:
//
//	w := contentstream.NewWriter()
//	w.BeginText().SetFont("F1", 11).MoveText(36, 516).ShowText(codes).EndText()
//	data := w.Bytes()
//
// The parser understands comments, the quote operators ' and ", operators
// with digits such as d0 and d1, marked-content property dictionaries and
// inline images, which are reported as a single BI operation.
package contentstream
