// Package core implements the PDF object model and its syntax: the eight
// basic object types plus streams and indirect references, a lexer and
// parser, cross-reference tables and streams, object streams, and a
// serializer that writes objects back out.
//
// Reading and writing share the same types, so an object parsed from a
// template can be modified and written to a new file without conversion.
//
// Streams keep their encoded bytes in [Stream.Data]; [Stream.Decode] applies
// the /Filter chain and [NewFlateStream] builds a compressed stream.
package core
