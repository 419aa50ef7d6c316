package layout

// Pixel constants shared by the HTML and PDF renderers.
const (
	WeekWidth     = 120
	GapOffset     = 5
	GapSize       = 10
	BaseOffset    = 20
	RowHeight     = 35
	BarHeight     = 28
	LabelWidth    = 160
	HeaderHeight  = 40
	MinLaneHeight = 100
	LanePadding   = 15
	ArcLift       = 30
)

// Rect is an axis-aligned rectangle in pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// MidY returns the vertical midpoint.
func (r Rect) MidY() float64 { return r.Top + r.Height/2 }

// Offset moves the rectangle by dx, dy.
func (r Rect) Offset(dx, dy float64) Rect {
	r.Left += dx
	r.Top += dy
	return r
}

// BarRect computes the bar of a task relative to its lane's week grid.
// start and duration are in weeks, index is the task's position within its
// lane. The result depends on nothing else.
func BarRect(start, duration, index int) Rect {
	return Rect{
		Left:   float64((start-1)*WeekWidth + GapOffset),
		Top:    float64(BaseOffset + index*RowHeight),
		Width:  float64(duration*WeekWidth - GapSize),
		Height: BarHeight,
	}
}

// LaneHeight returns the height of a lane holding rows stacked bars.
func LaneHeight(rows int) float64 {
	h := BaseOffset + rows*RowHeight + LanePadding
	if h < MinLaneHeight {
		h = MinLaneHeight
	}
	return float64(h)
}

// GridWidth is the width of the week columns for the given week count.
func GridWidth(weeks int) float64 {
	if weeks < 0 {
		weeks = 0
	}
	return float64(weeks * WeekWidth)
}
