// Package render draws a computed board layout as an HTML page with an SVG
// arrow overlay, or as a PDF snapshot.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tang-isab/swimlane-chart/domain"
	"github.com/tang-isab/swimlane-chart/editor"
	"github.com/tang-isab/swimlane-chart/layout"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashError   = "error"
	FlashInfo    = "info"
)

// ArrowColor is the stroke and marker fill of dependency arrows.
const ArrowColor = "#e74c3c"

// Flash is a one-shot notification shown above the board.
type Flash struct {
	Kind string
	Text string
}

// View is everything one page shows.
type View struct {
	Board             *domain.Board
	Plan              layout.Plan
	Form              editor.Form
	FormErrors        map[string]string
	LaneOptions       []editor.Option
	DependencyOptions []editor.Option
	Flashes           []Flash
}

// NewView computes the layout of the editor's board and collects the panel state.
func NewView(ed *editor.Editor, flashes []Flash) View {
	b := ed.Board()
	return View{
		Board:             b,
		Plan:              layout.Compute(b),
		Form:              ed.Form(),
		LaneOptions:       ed.LaneOptions(),
		DependencyOptions: ed.DependencyOptions(),
		Flashes:           flashes,
	}
}

// Renderer rebuilds the whole board page on each call. It holds no state
// besides the parsed templates and is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded page templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes the page for v.
func (r *Renderer) Render(w io.Writer, v View) error {
	return r.tmpl.ExecuteTemplate(w, "page", v)
}

var funcs = template.FuncMap{
	"px":       px,
	"weeks":    weekNumbers,
	"color":    cssColor,
	"hexColor": safeColor,
	"maxWeeks": func() int { return domain.MaxWeeks },
	"layout": func() map[string]float64 {
		return map[string]float64{
			"WeekWidth":    layout.WeekWidth,
			"LabelWidth":   layout.LabelWidth,
			"HeaderHeight": layout.HeaderHeight,
			"BarHeight":    layout.BarHeight,
		}
	},
	"arrowColor": func() string { return ArrowColor },
	"selected":   func(a, b string) bool { return a == b },
	"editing":    func(s editor.State) bool { return s == editor.Editing },
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func weekNumbers(n int) []int {
	out := make([]int, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		out = append(out, i)
	}
	return out
}

var (
	hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	cssHex   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	cssNamed = regexp.MustCompile(`^[a-zA-Z]{3,24}$`)
	cssFunc  = regexp.MustCompile(`^(?i:rgba?|hsla?)\(\s*[0-9.]+(?:%|deg)?(?:\s*[,/\s]\s*[0-9.]+%?){2,3}\s*\)$`)
)

// cssColor accepts hex, named and rgb()/hsl() colors for a style attribute.
// The result is marked as trusted CSS because html/template rejects
// parentheses in style values; anything else becomes the default color.
func cssColor(c string) template.CSS {
	c = strings.TrimSpace(c)
	if cssHex.MatchString(c) || cssNamed.MatchString(c) || cssFunc.MatchString(c) {
		return template.CSS(c)
	}
	return template.CSS(editor.DefaultColor)
}

// safeColor passes through #rgb and #rrggbb colors and falls back to the
// default task color for anything else. Color inputs and the PDF need hex.
func safeColor(c string) string {
	if hexColor.MatchString(c) {
		return c
	}
	return editor.DefaultColor
}
