package layout

import "github.com/tang-isab/swimlane-chart/domain"

// Bar is a placed task.
type Bar struct {
	Task    domain.Task `json:"task"`
	Index   int         `json:"index"`
	Local   Rect        `json:"local"`
	Rect    Rect        `json:"rect"`
	Blocked bool        `json:"blocked"`
}

// LanePlan is one horizontal band of the board.
type LanePlan struct {
	Lane   domain.Lane `json:"lane"`
	Top    float64     `json:"top"`
	Height float64     `json:"height"`
	Bars   []Bar       `json:"bars"`
}

// Plan is the full geometry of a board.
type Plan struct {
	Weeks  int        `json:"weeks"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Lanes  []LanePlan `json:"lanes"`
	Arrows []Arrow    `json:"arrows"`

	bars map[string]*Bar
}

// Compute lays out every lane and task of the board and routes the
// dependency arrows. Tasks whose lane does not exist are not placed.
func Compute(b *domain.Board) Plan {
	p := Plan{
		Weeks: b.Weeks,
		Width: LabelWidth + GridWidth(b.Weeks),
		Lanes: make([]LanePlan, 0, len(b.Lanes)),
		bars:  make(map[string]*Bar, len(b.Tasks)),
	}

	byLane := make(map[string][]domain.Task, len(b.Lanes))
	for _, t := range b.Tasks {
		byLane[t.Lane] = append(byLane[t.Lane], t)
	}

	top := 0.0
	for _, lane := range b.Lanes {
		tasks := byLane[lane.ID]
		lp := LanePlan{
			Lane:   lane,
			Top:    top,
			Height: LaneHeight(len(tasks)),
			Bars:   make([]Bar, 0, len(tasks)),
		}
		for i, t := range tasks {
			local := BarRect(t.Start, t.Duration, i)
			lp.Bars = append(lp.Bars, Bar{
				Task:    t,
				Index:   i,
				Local:   local,
				Rect:    local.Offset(LabelWidth, top),
				Blocked: b.IsBlocked(t),
			})
		}
		top += lp.Height
		p.Lanes = append(p.Lanes, lp)
	}
	p.Height = top

	for li := range p.Lanes {
		for bi := range p.Lanes[li].Bars {
			bar := &p.Lanes[li].Bars[bi]
			p.bars[bar.Task.ID] = bar
		}
	}
	p.Arrows = route(b, p.bars)
	return p
}

// Bar returns the placed bar of a task.
func (p Plan) Bar(taskID string) (Bar, bool) {
	bar, ok := p.bars[taskID]
	if !ok {
		return Bar{}, false
	}
	return *bar, true
}
