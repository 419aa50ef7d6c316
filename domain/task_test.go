package domain

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalUsesSwimlaneField(t *testing.T) {
	task := Task{ID: "t1", Name: "Title", Lane: "marketing", Start: 1, Duration: 1, Dependencies: []string{}}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	if !strings.Contains(string(payload), `"swimlane":"marketing"`) {
		t.Fatalf("expected swimlane field, got %s", payload)
	}
	if strings.Contains(string(payload), "completed") {
		t.Fatalf("expected completed to be omitted when false, got %s", payload)
	}
	if !strings.Contains(string(payload), `"dependencies":[]`) {
		t.Fatalf("expected empty dependency list, got %s", payload)
	}
}

func TestDefaultBoardShape(t *testing.T) {
	b := DefaultBoard()
	if b.Weeks != 9 {
		t.Fatalf("weeks = %d, want 9", b.Weeks)
	}
	if len(b.Lanes) != 3 || len(b.Tasks) != 6 {
		t.Fatalf("unexpected default board: %d lanes, %d tasks", len(b.Lanes), len(b.Tasks))
	}
	for _, task := range b.Tasks {
		if _, ok := b.Lane(task.Lane); !ok {
			t.Fatalf("task %s references unknown lane %s", task.ID, task.Lane)
		}
		for _, dep := range task.Dependencies {
			if _, ok := b.Task(dep); !ok {
				t.Fatalf("task %s references unknown dependency %s", task.ID, dep)
			}
		}
	}
}

func TestDefaultBoardIsFreshEachCall(t *testing.T) {
	a := DefaultBoard()
	a.Tasks[0].Name = "changed"
	if DefaultBoard().Tasks[0].Name == "changed" {
		t.Fatal("DefaultBoard must not share state between calls")
	}
}

func TestRemoveLaneManagementScenario(t *testing.T) {
	b := DefaultBoard()
	removed, err := b.RemoveLane("management")
	if err != nil {
		t.Fatalf("remove lane: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("removed %d tasks, want 3", len(removed))
	}
	if len(b.Lanes) != 2 {
		t.Fatalf("lanes = %d, want 2", len(b.Lanes))
	}
	var ids []string
	for _, task := range b.Tasks {
		ids = append(ids, task.ID)
	}
	want := []string{"suggest-changes", "check-changes", "implement-changes"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("remaining tasks = %v, want %v", ids, want)
	}
}

func TestRemoveLaneKeepsDependencies(t *testing.T) {
	b := DefaultBoard()
	if _, err := b.RemoveLane("management"); err != nil {
		t.Fatalf("remove lane: %v", err)
	}
	check, _ := b.Task("check-changes")
	if !reflect.DeepEqual(check.Dependencies, []string{"evaluate-changes"}) {
		t.Fatalf("lane deletion must not rewrite dependencies, got %v", check.Dependencies)
	}
}

func TestRemoveLaneUnknown(t *testing.T) {
	b := DefaultBoard()
	if _, err := b.RemoveLane("nope"); err != ErrLaneNotFound {
		t.Fatalf("expected ErrLaneNotFound, got %v", err)
	}
	if len(b.Tasks) != 6 {
		t.Fatalf("tasks changed on failed removal")
	}
}

func TestRemoveTaskStripsDependencies(t *testing.T) {
	b := DefaultBoard()
	before := b.Clone()

	if err := b.RemoveTask("check-changes"); err != nil {
		t.Fatalf("remove task: %v", err)
	}
	if _, ok := b.Task("check-changes"); ok {
		t.Fatal("task still present")
	}
	if len(b.Tasks) != len(before.Tasks)-1 {
		t.Fatalf("tasks = %d, want %d", len(b.Tasks), len(before.Tasks)-1)
	}
	for _, task := range b.Tasks {
		if task.DependsOn("check-changes") {
			t.Fatalf("task %s still depends on removed task", task.ID)
		}
		orig, _ := before.Task(task.ID)
		want := orig.clone()
		want.Dependencies = withoutDependency(want.Dependencies, "check-changes")
		if !reflect.DeepEqual(task, want) {
			t.Fatalf("task %s changed beyond dependency strip: got %+v want %+v", task.ID, task, want)
		}
	}
}

func TestIsBlocked(t *testing.T) {
	tests := []struct {
		name      string
		dep       Task
		task      Task
		wantBlock bool
	}{
		{
			name:      "dependency ends after start",
			dep:       Task{ID: "a", Start: 1, Duration: 3},
			task:      Task{ID: "b", Start: 3, Dependencies: []string{"a"}},
			wantBlock: true,
		},
		{
			name: "dependency ends exactly at start",
			dep:  Task{ID: "a", Start: 1, Duration: 2},
			task: Task{ID: "b", Start: 3, Dependencies: []string{"a"}},
		},
		{
			name: "completed dependency",
			dep:  Task{ID: "a", Start: 1, Duration: 5, Completed: true},
			task: Task{ID: "b", Start: 2, Dependencies: []string{"a"}},
		},
		{
			name: "dangling dependency",
			dep:  Task{ID: "a", Start: 1, Duration: 5},
			task: Task{ID: "b", Start: 2, Dependencies: []string{"missing"}},
		},
		{
			name: "no dependencies",
			dep:  Task{ID: "a", Start: 1, Duration: 5},
			task: Task{ID: "b", Start: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Board{Weeks: 9, Tasks: []Task{tt.dep, tt.task}}
			if got := b.IsBlocked(tt.task); got != tt.wantBlock {
				t.Fatalf("IsBlocked = %v, want %v", got, tt.wantBlock)
			}
		})
	}
}

func TestIndexInLaneFollowsListOrder(t *testing.T) {
	b := DefaultBoard()
	cases := map[string]int{
		"suggest-changes":      0,
		"implement-changes":    1,
		"evaluate-changes":     0,
		"reevaluate-changes":   1,
		"evaluate-new-changes": 2,
		"check-changes":        0,
		"missing":              -1,
	}
	for id, want := range cases {
		if got := b.IndexInLane(id); got != want {
			t.Fatalf("IndexInLane(%s) = %d, want %d", id, got, want)
		}
	}
}

func TestToggleCompletedAndSetWeeks(t *testing.T) {
	b := DefaultBoard()
	done, err := b.ToggleCompleted("suggest-changes")
	if err != nil || !done {
		t.Fatalf("toggle: done=%v err=%v", done, err)
	}
	if _, err := b.ToggleCompleted("missing"); err != ErrTaskNotFound {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if err := b.SetWeeks(0); err != ErrInvalidWeeks {
		t.Fatalf("expected ErrInvalidWeeks, got %v", err)
	}
	if err := b.SetWeeks(MaxWeeks + 1); err != ErrInvalidWeeks {
		t.Fatalf("expected ErrInvalidWeeks above the cap, got %v", err)
	}
	if err := b.SetWeeks(12); err != nil || b.Weeks != 12 {
		t.Fatalf("set weeks: %v (weeks=%d)", err, b.Weeks)
	}
	if err := b.SetWeeks(MaxWeeks); err != nil || b.Weeks != MaxWeeks {
		t.Fatalf("set weeks to cap: %v (weeks=%d)", err, b.Weeks)
	}
}

func TestNormalizeClampsStoredValues(t *testing.T) {
	b := &Board{Weeks: 200000, Tasks: []Task{{ID: "t", Lane: "l", Start: 0, Duration: -3}}}
	b.Normalize()
	if b.Weeks != MaxWeeks {
		t.Fatalf("weeks = %d, want %d", b.Weeks, MaxWeeks)
	}
	if b.Tasks[0].Start != 1 || b.Tasks[0].Duration != 1 {
		t.Fatalf("task = %+v, want start and duration of 1", b.Tasks[0])
	}
}

func TestSnapshotRoundTripNormalizes(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	snap := NewSnapshot(DefaultBoard(), now)
	if snap.Timestamp != "2024-05-06T07:08:09.000Z" {
		t.Fatalf("unexpected timestamp %q", snap.Timestamp)
	}

	empty := Snapshot{}
	b := empty.Board()
	if b.Weeks != DefaultWeeks || b.Lanes == nil || b.Tasks == nil {
		t.Fatalf("expected normalized board, got %+v", b)
	}
	if !reflect.DeepEqual(snap.Board(), DefaultBoard()) {
		t.Fatalf("snapshot board differs from source")
	}
}
