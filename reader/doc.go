// Package reader loads a PDF file into memory and resolves its objects.
//
//	r, err := reader.Open("template.pdf")
//	if err != nil {
//	    return err
//	}
//	page, err := r.GetPage(0)
//
// Classic cross-reference tables, cross-reference streams, object streams
// and incremental updates are supported. When the cross-reference data is
// damaged the object table is rebuilt by scanning for object headers; see
// [Reader.Repaired]. Encrypted files are rejected.
//
// Objects are cached after the first load.
package reader
