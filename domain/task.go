package domain

// Task represents a single bar on the board.
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Lane         string   `json:"swimlane"`
	Start        int      `json:"start"`
	Duration     int      `json:"duration"`
	Color        string   `json:"color"`
	Dependencies []string `json:"dependencies"`
	Completed    bool     `json:"completed,omitempty"`
}

// End returns the first week after the task, i.e. the exclusive end of
// [Start, Start+Duration).
func (t Task) End() int {
	return t.Start + t.Duration
}

// DependsOn reports whether id is listed in the task's dependencies.
func (t Task) DependsOn(id string) bool {
	for _, dep := range t.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

func (t Task) clone() Task {
	out := t
	out.Dependencies = append([]string{}, t.Dependencies...)
	return out
}

func withoutDependency(deps []string, id string) []string {
	out := deps[:0]
	for _, dep := range deps {
		if dep != id {
			out = append(out, dep)
		}
	}
	return out
}
