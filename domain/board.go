package domain

import "fmt"

// DefaultWeeks is the week count used when a document does not carry one.
const DefaultWeeks = 9

// MaxWeeks caps the timeline at ten years.
const MaxWeeks = 520

// Board is the complete in-memory data model: lanes and tasks in insertion
// order plus the number of weeks shown on the timeline.
type Board struct {
	Weeks int    `json:"weeks"`
	Lanes []Lane `json:"swimlanes"`
	Tasks []Task `json:"tasks"`
}

// Lane returns the lane with the given id.
func (b *Board) Lane(id string) (*Lane, bool) {
	for i := range b.Lanes {
		if b.Lanes[i].ID == id {
			return &b.Lanes[i], true
		}
	}
	return nil, false
}

// Task returns a pointer into the task list so callers can update in place.
func (b *Board) Task(id string) (*Task, bool) {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			return &b.Tasks[i], true
		}
	}
	return nil, false
}

// TasksInLane returns the tasks of a lane in list order.
func (b *Board) TasksInLane(laneID string) []Task {
	var out []Task
	for _, t := range b.Tasks {
		if t.Lane == laneID {
			out = append(out, t)
		}
	}
	return out
}

// IndexInLane returns the position of the task among the tasks sharing its
// lane, in list order. It returns -1 for unknown ids.
func (b *Board) IndexInLane(taskID string) int {
	task, ok := b.Task(taskID)
	if !ok {
		return -1
	}
	idx := 0
	for _, t := range b.Tasks {
		if t.ID == taskID {
			return idx
		}
		if t.Lane == task.Lane {
			idx++
		}
	}
	return -1
}

// IsBlocked reports whether some dependency of t is not completed and ends
// after t starts. Dangling dependency ids are ignored.
func (b *Board) IsBlocked(t Task) bool {
	for _, depID := range t.Dependencies {
		dep, ok := b.Task(depID)
		if !ok {
			continue
		}
		if !dep.Completed && dep.End() > t.Start {
			return true
		}
	}
	return false
}

// AddLane appends a lane. Duplicate ids are rejected.
func (b *Board) AddLane(l Lane) error {
	if _, ok := b.Lane(l.ID); ok {
		return fmt.Errorf("lane %q already exists", l.ID)
	}
	b.Lanes = append(b.Lanes, l)
	return nil
}

// RemoveLane deletes the lane and every task that references it. The removed
// tasks are returned. Dependency lists of the remaining tasks are left as is.
func (b *Board) RemoveLane(id string) ([]Task, error) {
	idx := -1
	for i := range b.Lanes {
		if b.Lanes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrLaneNotFound
	}
	b.Lanes = append(b.Lanes[:idx], b.Lanes[idx+1:]...)

	var removed []Task
	kept := b.Tasks[:0]
	for _, t := range b.Tasks {
		if t.Lane == id {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	b.Tasks = kept
	return removed, nil
}

// AddTask appends a task to the end of the task list.
func (b *Board) AddTask(t Task) error {
	if _, ok := b.Task(t.ID); ok {
		return fmt.Errorf("task %q already exists", t.ID)
	}
	if t.Dependencies == nil {
		t.Dependencies = []string{}
	}
	b.Tasks = append(b.Tasks, t)
	return nil
}

// RemoveTask deletes the task and strips its id from every other task's
// dependency list.
func (b *Board) RemoveTask(id string) error {
	idx := -1
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrTaskNotFound
	}
	b.Tasks = append(b.Tasks[:idx], b.Tasks[idx+1:]...)
	for i := range b.Tasks {
		if b.Tasks[i].DependsOn(id) {
			b.Tasks[i].Dependencies = withoutDependency(b.Tasks[i].Dependencies, id)
		}
	}
	return nil
}

// ToggleCompleted flips the completion flag of a task and returns the new value.
func (b *Board) ToggleCompleted(id string) (bool, error) {
	t, ok := b.Task(id)
	if !ok {
		return false, ErrTaskNotFound
	}
	t.Completed = !t.Completed
	return t.Completed, nil
}

// SetWeeks changes the number of weeks on the timeline.
func (b *Board) SetWeeks(n int) error {
	if n < 1 || n > MaxWeeks {
		return ErrInvalidWeeks
	}
	b.Weeks = n
	return nil
}

// Normalize fills in defaults for documents that were decoded from JSON:
// a missing week count and nil slices. Out-of-range week counts, starts and
// durations are clamped.
func (b *Board) Normalize() {
	if b.Weeks < 1 {
		b.Weeks = DefaultWeeks
	}
	if b.Weeks > MaxWeeks {
		b.Weeks = MaxWeeks
	}
	if b.Lanes == nil {
		b.Lanes = []Lane{}
	}
	if b.Tasks == nil {
		b.Tasks = []Task{}
	}
	for i := range b.Tasks {
		t := &b.Tasks[i]
		if t.Dependencies == nil {
			t.Dependencies = []string{}
		}
		t.Start = max(t.Start, 1)
		t.Duration = max(t.Duration, 1)
	}
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	out := &Board{
		Weeks: b.Weeks,
		Lanes: append([]Lane{}, b.Lanes...),
		Tasks: make([]Task, len(b.Tasks)),
	}
	for i, t := range b.Tasks {
		out.Tasks[i] = t.clone()
	}
	return out
}
