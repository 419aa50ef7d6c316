package editor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Form defaults for a new task.
const (
	DefaultStart    = 1
	DefaultDuration = 2
	DefaultColor    = "#4CAF50"
)

// TaskForm is the raw, untrusted content of the task panel.
type TaskForm struct {
	Name       string `form:"name" json:"name"`
	Lane       string `form:"swimlane" json:"swimlane"`
	Start      string `form:"start" json:"start"`
	Duration   string `form:"duration" json:"duration"`
	Color      string `form:"color" json:"color"`
	Dependency string `form:"dependency" json:"dependency"`
}

// TaskInput is a validated task command.
type TaskInput struct {
	Name         string
	Lane         string
	Start        int
	Duration     int
	Color        string
	Dependencies []string
}

// ValidationError lists the offending fields of a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid task: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// ParseTaskForm converts raw form values into a TaskInput. Name, lane, start
// and duration are required; start and duration must be whole numbers of at
// least one. An empty color falls back to DefaultColor and an empty
// dependency means none.
func ParseTaskForm(f TaskForm) (TaskInput, error) {
	var verr ValidationError
	in := TaskInput{
		Name:         strings.TrimSpace(f.Name),
		Lane:         strings.TrimSpace(f.Lane),
		Color:        strings.TrimSpace(f.Color),
		Dependencies: []string{},
	}
	if in.Name == "" {
		verr.add("name", "required")
	}
	if in.Lane == "" {
		verr.add("swimlane", "required")
	}
	in.Start = parseWeeks(&verr, "start", f.Start)
	in.Duration = parseWeeks(&verr, "duration", f.Duration)
	if in.Color == "" {
		in.Color = DefaultColor
	}
	if dep := strings.TrimSpace(f.Dependency); dep != "" {
		in.Dependencies = append(in.Dependencies, dep)
	}
	if len(verr.Fields) > 0 {
		return TaskInput{}, &verr
	}
	return in, nil
}

func parseWeeks(verr *ValidationError, field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.add(field, "required")
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.add(field, fmt.Sprintf("%q is not a whole number", raw))
		return 0
	}
	if n < 1 {
		verr.add(field, "must be at least 1")
		return 0
	}
	return n
}
