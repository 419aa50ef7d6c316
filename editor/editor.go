package editor

import (
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tang-isab/swimlane-chart/domain"
)

// State of the task panel.
type State int

const (
	// Idle shows a blank "add" form.
	Idle State = iota
	// Editing binds the panel to one existing task.
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

var (
	// ErrNotEditing is returned by DeleteBound when no task is bound.
	ErrNotEditing = errors.New("no task is being edited")
	// ErrSelfDependency rejects a task depending on itself.
	ErrSelfDependency = errors.New("a task cannot depend on itself")
	// ErrEmptyLaneName rejects lanes without a name.
	ErrEmptyLaneName = errors.New("lane name is required")
)

// Form is what the task panel shows.
type Form struct {
	State      State
	TaskID     string
	Title      string
	Submit     string
	Name       string
	Lane       string
	Start      string
	Duration   string
	Color      string
	Dependency string
}

// Option is an entry of a select element.
type Option struct {
	Value string
	Label string
}

// Editor owns the task panel state machine and applies every mutation to the
// board. onChange runs after each successful mutation; callers hook
// re-rendering and the debounced save there.
type Editor struct {
	board    *domain.Board
	state    State
	bound    string
	onChange func()
	newID    func(prefix string) string
}

// New creates an editor in the Idle state.
func New(board *domain.Board, onChange func()) *Editor {
	if board == nil {
		panic("editor.New: board is nil")
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &Editor{
		board:    board,
		onChange: onChange,
		newID:    func(prefix string) string { return prefix + "-" + uuid.NewString() },
	}
}

// Board returns the board being edited.
func (e *Editor) Board() *domain.Board { return e.board }

// State returns the current panel state.
func (e *Editor) State() State { return e.state }

// Bound returns the id of the task being edited, if any.
func (e *Editor) Bound() (string, bool) {
	return e.bound, e.state == Editing
}

// OpenForCreate resets the panel to a blank add form.
func (e *Editor) OpenForCreate() Form {
	e.state = Idle
	e.bound = ""
	return e.Form()
}

// OpenForEdit binds the panel to the task with the given id.
func (e *Editor) OpenForEdit(id string) (Form, error) {
	if _, ok := e.board.Task(id); !ok {
		return e.OpenForCreate(), domain.ErrTaskNotFound
	}
	e.state = Editing
	e.bound = id
	return e.Form(), nil
}

// Form renders the panel for the current state.
func (e *Editor) Form() Form {
	if e.state == Editing {
		if t, ok := e.board.Task(e.bound); ok {
			dep := ""
			if len(t.Dependencies) > 0 {
				dep = t.Dependencies[0]
			}
			return Form{
				State:      Editing,
				TaskID:     t.ID,
				Title:      "Edit Task",
				Submit:     "Update Task",
				Name:       t.Name,
				Lane:       t.Lane,
				Start:      strconv.Itoa(t.Start),
				Duration:   strconv.Itoa(t.Duration),
				Color:      t.Color,
				Dependency: dep,
			}
		}
		e.state = Idle
		e.bound = ""
	}
	lane := ""
	if len(e.board.Lanes) > 0 {
		lane = e.board.Lanes[0].ID
	}
	return Form{
		State:    Idle,
		Title:    "Add New Task",
		Submit:   "Add Task",
		Lane:     lane,
		Start:    strconv.Itoa(DefaultStart),
		Duration: strconv.Itoa(DefaultDuration),
		Color:    DefaultColor,
	}
}

// Submit applies a validated task command. When editing, the bound task is
// updated in place and keeps its id and completion flag; otherwise a new task
// with a fresh id is appended. The panel returns to Idle either way.
func (e *Editor) Submit(in TaskInput) (*domain.Task, error) {
	if _, ok := e.board.Lane(in.Lane); !ok {
		return nil, &ValidationError{Fields: map[string]string{"swimlane": "unknown lane " + strconv.Quote(in.Lane)}}
	}
	deps := append([]string{}, in.Dependencies...)

	if e.state == Editing {
		t, ok := e.board.Task(e.bound)
		if !ok {
			e.OpenForCreate()
			return nil, domain.ErrTaskNotFound
		}
		for _, dep := range deps {
			if dep == t.ID {
				return nil, ErrSelfDependency
			}
		}
		t.Name = in.Name
		t.Lane = in.Lane
		t.Start = in.Start
		t.Duration = in.Duration
		t.Color = in.Color
		t.Dependencies = deps
		id := t.ID
		e.OpenForCreate()
		e.onChange()
		updated, _ := e.board.Task(id)
		return updated, nil
	}

	task := domain.Task{
		ID:           e.newID("task"),
		Name:         in.Name,
		Lane:         in.Lane,
		Start:        in.Start,
		Duration:     in.Duration,
		Color:        in.Color,
		Dependencies: deps,
	}
	if err := e.board.AddTask(task); err != nil {
		return nil, err
	}
	e.OpenForCreate()
	e.onChange()
	created, _ := e.board.Task(task.ID)
	return created, nil
}

// DeleteBound removes the task being edited and strips it from every
// dependency list.
func (e *Editor) DeleteBound() error {
	if e.state != Editing {
		return ErrNotEditing
	}
	id := e.bound
	e.OpenForCreate()
	if err := e.board.RemoveTask(id); err != nil {
		return err
	}
	e.onChange()
	return nil
}

// DeleteTask removes any task by id, leaving the panel alone unless it was
// bound to that task.
func (e *Editor) DeleteTask(id string) error {
	if err := e.board.RemoveTask(id); err != nil {
		return err
	}
	if e.state == Editing && e.bound == id {
		e.OpenForCreate()
	}
	e.onChange()
	return nil
}

// AddLane appends a lane with a fresh id.
func (e *Editor) AddLane(name string) (domain.Lane, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Lane{}, ErrEmptyLaneName
	}
	lane := domain.Lane{ID: e.newID("swimlane"), Name: name}
	if err := e.board.AddLane(lane); err != nil {
		return domain.Lane{}, err
	}
	e.onChange()
	return lane, nil
}

// DeleteLane removes a lane and every task in it.
func (e *Editor) DeleteLane(id string) ([]domain.Task, error) {
	removed, err := e.board.RemoveLane(id)
	if err != nil {
		return nil, err
	}
	if e.state == Editing {
		for _, t := range removed {
			if t.ID == e.bound {
				e.OpenForCreate()
				break
			}
		}
	}
	e.onChange()
	return removed, nil
}

// ToggleCompleted flips the completion flag of a task.
func (e *Editor) ToggleCompleted(id string) (bool, error) {
	done, err := e.board.ToggleCompleted(id)
	if err != nil {
		return false, err
	}
	e.onChange()
	return done, nil
}

// SetWeeks changes the timeline length.
func (e *Editor) SetWeeks(n int) error {
	if err := e.board.SetWeeks(n); err != nil {
		return err
	}
	e.onChange()
	return nil
}

// Replace swaps in a whole new board, e.g. after an import or a reset.
func (e *Editor) Replace(b *domain.Board) {
	*e.board = *b
	e.OpenForCreate()
	e.onChange()
}

// LaneOptions lists the lanes for the lane select.
func (e *Editor) LaneOptions() []Option {
	out := make([]Option, 0, len(e.board.Lanes))
	for _, l := range e.board.Lanes {
		out = append(out, Option{Value: l.ID, Label: l.Name})
	}
	return out
}

// DependencyOptions lists every task except the one being edited, preceded
// by the "None" entry.
func (e *Editor) DependencyOptions() []Option {
	out := make([]Option, 0, len(e.board.Tasks)+1)
	out = append(out, Option{Value: "", Label: "None"})
	for _, t := range e.board.Tasks {
		if e.state == Editing && t.ID == e.bound {
			continue
		}
		out = append(out, Option{Value: t.ID, Label: t.Name})
	}
	return out
}
