// Package graphicsstate tracks the PDF graphics state while content streams
// are executed.
//
// GraphicsState holds the CTM, line width, colors and the text state
// (font, spacing, scaling, leading, rise and the two text matrices) along
// with the q/Q save stack:
//
//	gs := graphicsstate.NewGraphicsState()
//	gs.Save()              // q
//	gs.Transform(matrix)   // cm
//	gs.SetFont("F1", 12)   // Tf
//	gs.Restore()           // Q
//
// Processor runs a content stream against a Resources implementation and
// records every shown string as a TextRun with its device space bounding
// box, plus every stroked straight segment. Form XObjects painted with Do
// are executed in place with their own matrix and resources.
package graphicsstate
