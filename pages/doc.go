// Package pages walks a PDF page tree and exposes individual pages.
//
// Pages are returned in document order together with their indirect
// reference, so callers that edit a document can write a modified page
// dictionary back under the same object number.
//
// Inheritable attributes (/Resources, /MediaBox, /CropBox and /Rotate) are
// looked up on the page first and then on each ancestor, nearest first.
//
// The [ObjectResolver] interface abstracts object lookup so the same code
// serves both the file reader and the in-memory document writer.
package pages
