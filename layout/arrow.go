package layout

import (
	"strconv"
	"strings"

	"github.com/tang-isab/swimlane-chart/domain"
)

// Arrow connects a prerequisite bar to its dependent bar.
type Arrow struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	SameLane bool    `json:"sameLane"`
	Path     string  `json:"path"`
	Points   []Point `json:"points"`
	MarkerID string  `json:"markerId"`
}

// Point is a vertex of an arrow path. For curved arrows the middle point is
// the quadratic control point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Route returns the vertices of the arrow from the right edge of from to the
// left edge of to. Bars in the same lane are joined by a quadratic curve
// whose control point is lifted ArcLift pixels above the source midpoint;
// bars in different lanes get a right-angled path that turns at the
// horizontal midpoint.
func Route(from, to Rect, sameLane bool) []Point {
	fx, fy := from.Right(), from.MidY()
	tx, ty := to.Left, to.MidY()
	mx := (fx + tx) / 2
	if sameLane {
		return []Point{{fx, fy}, {mx, fy - ArcLift}, {tx, ty}}
	}
	return []Point{{fx, fy}, {mx, fy}, {mx, ty}, {tx, ty}}
}

// PathData renders vertices produced by Route as SVG path data.
func PathData(points []Point, sameLane bool) string {
	if len(points) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("M ")
	writePoint(&sb, points[0])
	if sameLane && len(points) == 3 {
		sb.WriteString(" Q ")
		writePoint(&sb, points[1])
		sb.WriteByte(' ')
		writePoint(&sb, points[2])
		return sb.String()
	}
	for _, pt := range points[1:] {
		sb.WriteString(" L ")
		writePoint(&sb, pt)
	}
	return sb.String()
}

// MarkerID names the arrowhead marker of the edge from -> to.
func MarkerID(from, to string) string {
	return "arrowhead-" + from + "-" + to
}

func writePoint(sb *strings.Builder, pt Point) {
	sb.WriteString(formatCoord(pt.X))
	sb.WriteByte(' ')
	sb.WriteString(formatCoord(pt.Y))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// route draws one arrow per dependency edge, in task order then dependency
// order. Edges with a missing endpoint are skipped.
func route(b *domain.Board, bars map[string]*Bar) []Arrow {
	var arrows []Arrow
	for _, t := range b.Tasks {
		to, ok := bars[t.ID]
		if !ok {
			continue
		}
		for _, depID := range t.Dependencies {
			from, ok := bars[depID]
			if !ok {
				continue
			}
			same := from.Task.Lane == to.Task.Lane
			pts := Route(from.Rect, to.Rect, same)
			arrows = append(arrows, Arrow{
				From:     depID,
				To:       t.ID,
				SameLane: same,
				Path:     PathData(pts, same),
				Points:   pts,
				MarkerID: MarkerID(depID, t.ID),
			})
		}
	}
	return arrows
}
