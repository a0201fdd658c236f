// Package filters implements the PDF stream filters the linksheet pipeline
// needs: FlateDecode in both directions, plus the ASCII decoders that show up
// in hand-edited templates.
//
// FlateDecode honours the Predictor decode parameter:
//   - 1: no prediction (default)
//   - 2: TIFF Predictor 2
//   - 10-15: PNG predictors (None, Sub, Up, Average, Paeth)
//
// Xref streams written by most producers use PNG predictor 12, so the predictor
// path is exercised whenever such a template is opened.
//
//	params := filters.Params{"Predictor": 12, "Columns": 5}
//	decoded, err := filters.FlateDecode(data, params)
package filters
