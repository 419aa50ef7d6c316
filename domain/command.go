package domain

import "github.com/bytedance/sonic"

// Command types accepted by the board command endpoint.
const (
	CommandCreateTask = "create-task"
	CommandUpdateTask = "update-task"
	CommandDeleteTask = "delete-task"
	CommandToggleTask = "toggle-task"
	CommandCreateLane = "create-lane"
	CommandDeleteLane = "delete-lane"
	CommandSetWeeks   = "set-weeks"
	EntityTypeTask    = "task"
	EntityTypeLane    = "lane"
	EntityTypeBoard   = "board"
)

// Command represents a write request for the board.
type Command struct {
	IdempotencyKey string                 `json:"idempotencyKey"`
	EntityType     string                 `json:"entityType"`
	Type           string                 `json:"type"`
	EntityID       string                 `json:"entityId,omitempty"`
	Data           sonic.NoCopyRawMessage `json:"data,omitempty"`
	Timestamp      int64                  `json:"timestamp"`
}

// TaskData is the payload of create-task and update-task commands. Numeric
// fields are strings so they go through the same validation as form input.
type TaskData struct {
	Name       string `json:"name"`
	Lane       string `json:"swimlane"`
	Start      string `json:"start"`
	Duration   string `json:"duration"`
	Color      string `json:"color"`
	Dependency string `json:"dependency"`
}

// LaneData is the payload of create-lane commands.
type LaneData struct {
	Name string `json:"name"`
}

// WeeksData is the payload of set-weeks commands.
type WeeksData struct {
	Weeks int `json:"weeks"`
}
