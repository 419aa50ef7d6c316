package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/tang-isab/swimlane-chart/domain"
	"github.com/tang-isab/swimlane-chart/layout"
)

const (
	pdfMargin = 28.0 // pt
	pdfTitleH = 36.0
)

// PDFFilename names the snapshot file for the given day.
func PDFFilename(now time.Time) string {
	return "swimlane-project-" + now.UTC().Format("2006-01-02") + ".pdf"
}

// PDF draws the board on a single landscape A4 page, scaled to fit.
func PDF(w io.Writer, b *domain.Board, now time.Time) error {
	plan := layout.Compute(b)

	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetTitle("Swimlane Project Tracker", true)
	pdf.SetCreationDate(now)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(pdfMargin, pdfMargin)
	pdf.Cell(0, 18, tr("Swimlane Project Tracker"))
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(pdfMargin, pdfMargin+18)
	pdf.Cell(0, 12, fmt.Sprintf("Exported %s  -  %d weeks, %d swimlanes, %d tasks",
		domain.FormatTimestamp(now), plan.Weeks, len(plan.Lanes), len(b.Tasks)))

	boardW := plan.Width
	boardH := layout.HeaderHeight + plan.Height
	availW := pageW - 2*pdfMargin
	availH := pageH - 2*pdfMargin - pdfTitleH
	scale := math.Min(1, math.Min(availW/math.Max(boardW, 1), availH/math.Max(boardH, 1)))

	d := pdfDrawer{pdf: pdf, tr: tr, scale: scale, x0: pdfMargin, y0: pdfMargin + pdfTitleH}
	d.header(plan)
	d.lanes(plan)
	d.arrows(plan)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type pdfDrawer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	scale  float64
	x0, y0 float64
}

// at maps board pixels (origin at the top-left of the lanes area) to page points.
func (d pdfDrawer) at(x, y float64) (float64, float64) {
	return d.x0 + x*d.scale, d.y0 + (layout.HeaderHeight+y)*d.scale
}

func (d pdfDrawer) header(plan layout.Plan) {
	pdf := d.pdf
	h := layout.HeaderHeight * d.scale
	pdf.SetFont("Helvetica", "B", 9*d.scale)
	pdf.SetFillColor(236, 240, 241)
	pdf.SetDrawColor(200, 205, 210)
	pdf.SetTextColor(44, 62, 80)

	pdf.SetXY(d.x0, d.y0)
	pdf.CellFormat(layout.LabelWidth*d.scale, h, "Swimlanes", "1", 0, "C", true, 0, "")
	for i := 1; i <= plan.Weeks; i++ {
		pdf.CellFormat(layout.WeekWidth*d.scale, h, "Week "+strconv.Itoa(i), "1", 0, "C", true, 0, "")
	}
}

func (d pdfDrawer) lanes(plan layout.Plan) {
	pdf := d.pdf
	for i, lp := range plan.Lanes {
		x, y := d.at(0, lp.Top)
		if i%2 == 0 {
			pdf.SetFillColor(250, 251, 252)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		pdf.SetDrawColor(200, 205, 210)
		pdf.Rect(x, y, plan.Width*d.scale, lp.Height*d.scale, "FD")

		pdf.SetDashPattern([]float64{2, 2}, 0)
		for wk := 0; wk <= plan.Weeks; wk++ {
			gx, _ := d.at(layout.LabelWidth+float64(wk*layout.WeekWidth), 0)
			pdf.Line(gx, y, gx, y+lp.Height*d.scale)
		}
		pdf.SetDashPattern(nil, 0)

		pdf.SetFont("Helvetica", "B", 9*d.scale)
		pdf.SetTextColor(44, 62, 80)
		pdf.SetXY(x+4*d.scale, y+4*d.scale)
		pdf.CellFormat((layout.LabelWidth-8)*d.scale, 14*d.scale, d.tr(lp.Lane.Name), "", 0, "L", false, 0, "")

		for _, bar := range lp.Bars {
			d.bar(bar)
		}
	}
}

func (d pdfDrawer) bar(bar layout.Bar) {
	pdf := d.pdf
	x, y := d.at(bar.Rect.Left, bar.Rect.Top)
	w, h := bar.Rect.Width*d.scale, bar.Rect.Height*d.scale

	r, g, b := hexRGB(safeColor(bar.Task.Color))
	if bar.Task.Completed {
		r, g, b = fade(r), fade(g), fade(b)
	}
	pdf.SetFillColor(r, g, b)
	if bar.Blocked {
		pdf.SetDrawColor(231, 76, 60)
		pdf.SetLineWidth(1.5 * d.scale)
		pdf.SetDashPattern([]float64{3, 2}, 0)
		pdf.RoundedRect(x, y, w, h, 3*d.scale, "1234", "FD")
		pdf.SetDashPattern(nil, 0)
		pdf.SetLineWidth(0.5)
	} else {
		pdf.RoundedRect(x, y, w, h, 3*d.scale, "1234", "F")
	}

	pdf.SetFont("Helvetica", "", 8*d.scale)
	pdf.SetTextColor(255, 255, 255)
	name := d.tr(bar.Task.Name)
	for len(name) > 1 && pdf.GetStringWidth(name) > w-8*d.scale {
		name = name[:len(name)-2] + "."
	}
	pdf.SetXY(x+4*d.scale, y)
	pdf.CellFormat(w-8*d.scale, h, name, "", 0, "L", false, 0, "")
	if bar.Task.Completed {
		mid := y + h/2
		pdf.SetDrawColor(255, 255, 255)
		pdf.Line(x+4*d.scale, mid, x+4*d.scale+pdf.GetStringWidth(name), mid)
	}
}

func (d pdfDrawer) arrows(plan layout.Plan) {
	pdf := d.pdf
	r, g, b := hexRGB(ArrowColor)
	pdf.SetDrawColor(r, g, b)
	pdf.SetFillColor(r, g, b)
	pdf.SetLineWidth(1.2 * d.scale)
	for _, a := range plan.Arrows {
		pts := make([]fpdf.PointType, len(a.Points))
		for i, p := range a.Points {
			x, y := d.at(p.X, p.Y)
			pts[i] = fpdf.PointType{X: x, Y: y}
		}
		if a.SameLane && len(pts) == 3 {
			pdf.Curve(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, pts[2].X, pts[2].Y, "D")
		} else {
			for i := 1; i < len(pts); i++ {
				pdf.Line(pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y)
			}
		}
		n := len(pts)
		if n >= 2 {
			d.arrowhead(pts[n-2], pts[n-1])
		}
	}
	pdf.SetLineWidth(0.5)
}

// arrowhead draws a filled triangle at tip pointing away from from.
func (d pdfDrawer) arrowhead(from, tip fpdf.PointType) {
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	length, half := 8*d.scale, 3.5*d.scale
	bx, by := tip.X-length*math.Cos(angle), tip.Y-length*math.Sin(angle)
	px, py := -math.Sin(angle)*half, math.Cos(angle)*half
	d.pdf.Polygon([]fpdf.PointType{
		{X: tip.X, Y: tip.Y},
		{X: bx + px, Y: by + py},
		{X: bx - px, Y: by - py},
	}, "F")
}

// hexRGB parses #rgb or #rrggbb; other input yields grey.
func hexRGB(c string) (int, int, int) {
	if !hexColor.MatchString(c) {
		return 128, 128, 128
	}
	s := c[1:]
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 128, 128, 128
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func fade(c int) int {
	return c + (255-c)/2
}
