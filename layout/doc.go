// Package layout turns a board into pixel geometry: bar rectangles, lane
// bands and the SVG paths of dependency arrows.
//
// All coordinates are relative to the top-left corner of the lanes
// container, which sits directly below the week header.
package layout
