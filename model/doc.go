// Package model holds the types shared by the layout engine and the link
// region reconstructor: item records, the page geometry both components
// position against, and small rectangle and matrix helpers.
//
// Layout coordinates are PDF user space: origin at the bottom-left corner,
// y growing upward. Link regions are also expressed top-down (origin at the
// top-left, y growing downward), the form annotation tools and viewers
// address a page in. [Geometry.ToTopDown] and [Geometry.ToBottomUp] are the
// only conversion between the two.
package model
