package layout

import (
	"testing"

	"github.com/tang-isab/swimlane-chart/domain"
)

func TestRouteSameLaneCurve(t *testing.T) {
	from := Rect{Left: 10, Top: 20, Width: 100, Height: 20}
	to := Rect{Left: 200, Top: 20, Width: 100, Height: 20}
	pts := Route(from, to, true)
	got := PathData(pts, true)
	want := "M 110 30 Q 155 0 200 30"
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestRouteDifferentLanesOrthogonal(t *testing.T) {
	from := Rect{Left: 0, Top: 0, Width: 100, Height: 20}
	to := Rect{Left: 201, Top: 100, Width: 50, Height: 30}
	pts := Route(from, to, false)
	got := PathData(pts, false)
	want := "M 100 10 L 150.5 10 L 150.5 115 L 201 115"
	if got != want {
		t.Fatalf("path = %q, want %q", got, want)
	}
}

func TestPathDataEmpty(t *testing.T) {
	if PathData(nil, false) != "" {
		t.Fatal("expected empty path")
	}
}

func TestArrowsForDefaultBoard(t *testing.T) {
	b := domain.DefaultBoard()
	plan := Compute(b)
	if len(plan.Arrows) != 5 {
		t.Fatalf("arrows = %d, want 5", len(plan.Arrows))
	}
	first := plan.Arrows[0]
	if first.From != "suggest-changes" || first.To != "evaluate-changes" || first.SameLane {
		t.Fatalf("unexpected first arrow %+v", first)
	}
	if first.MarkerID != "arrowhead-suggest-changes-evaluate-changes" {
		t.Fatalf("marker id = %q", first.MarkerID)
	}
	var sameLane int
	for _, a := range plan.Arrows {
		if a.SameLane {
			sameLane++
			if len(a.Points) != 3 {
				t.Fatalf("curve should have 3 points, got %d", len(a.Points))
			}
		}
	}
	// reevaluate -> evaluate-new share the management lane.
	if sameLane != 1 {
		t.Fatalf("same-lane arrows = %d, want 1", sameLane)
	}
}

func TestArrowsSkipDanglingDependency(t *testing.T) {
	b := domain.DefaultBoard()
	b.Tasks[0].Dependencies = []string{"ghost"}
	plan := Compute(b)
	for _, a := range plan.Arrows {
		if a.From == "ghost" {
			t.Fatal("arrow from dangling dependency")
		}
	}
	if len(plan.Arrows) != 5 {
		t.Fatalf("arrows = %d, want 5", len(plan.Arrows))
	}
}

func TestArrowEndpointsTouchBars(t *testing.T) {
	b := domain.DefaultBoard()
	plan := Compute(b)
	for _, a := range plan.Arrows {
		from, _ := plan.Bar(a.From)
		to, _ := plan.Bar(a.To)
		start := a.Points[0]
		end := a.Points[len(a.Points)-1]
		if start.X != from.Rect.Right() || start.Y != from.Rect.MidY() {
			t.Fatalf("arrow %s->%s starts at %+v", a.From, a.To, start)
		}
		if end.X != to.Rect.Left || end.Y != to.Rect.MidY() {
			t.Fatalf("arrow %s->%s ends at %+v", a.From, a.To, end)
		}
	}
}
