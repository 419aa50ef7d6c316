package web

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/tang-isab/swimlane-chart/domain"
	"github.com/tang-isab/swimlane-chart/editor"
)

// Command result statuses.
const (
	StatusApplied   = "applied"
	StatusDuplicate = "duplicate"
	StatusRejected  = "rejected"
)

var (
	errUnknownCommand = errors.New("unknown command type")
	errMissingData    = errors.New("command data is required")
	errMissingEntity  = errors.New("entityId is required")
)

// CommandResult reports what happened to one command of a batch.
type CommandResult struct {
	IdempotencyKey string `json:"idempotencyKey"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
}

type commandResponse struct {
	IdempotencyKeys []string        `json:"idempotencyKeys"`
	Results         []CommandResult `json:"results"`
}

// applyCommand runs one command through the editor. The panel is left idle.
func applyCommand(ed *editor.Editor, cmd domain.Command) error {
	if want := entityTypeFor(cmd.Type); want != "" && cmd.EntityType != "" && cmd.EntityType != want {
		return fmt.Errorf("%s command on %s entity", cmd.Type, cmd.EntityType)
	}
	switch cmd.Type {
	case domain.CommandCreateTask, domain.CommandUpdateTask:
		var data domain.TaskData
		if err := decodeData(cmd, &data); err != nil {
			return err
		}
		in, err := editor.ParseTaskForm(editor.TaskForm{
			Name:       data.Name,
			Lane:       data.Lane,
			Start:      data.Start,
			Duration:   data.Duration,
			Color:      data.Color,
			Dependency: data.Dependency,
		})
		if err != nil {
			return err
		}
		if cmd.Type == domain.CommandCreateTask {
			ed.OpenForCreate()
		} else {
			if cmd.EntityID == "" {
				return errMissingEntity
			}
			if _, err := ed.OpenForEdit(cmd.EntityID); err != nil {
				return err
			}
		}
		_, err = ed.Submit(in)
		if err != nil {
			ed.OpenForCreate()
		}
		return err
	case domain.CommandDeleteTask:
		if cmd.EntityID == "" {
			return errMissingEntity
		}
		return ed.DeleteTask(cmd.EntityID)
	case domain.CommandToggleTask:
		if cmd.EntityID == "" {
			return errMissingEntity
		}
		_, err := ed.ToggleCompleted(cmd.EntityID)
		return err
	case domain.CommandCreateLane:
		var data domain.LaneData
		if err := decodeData(cmd, &data); err != nil {
			return err
		}
		_, err := ed.AddLane(data.Name)
		return err
	case domain.CommandDeleteLane:
		if cmd.EntityID == "" {
			return errMissingEntity
		}
		_, err := ed.DeleteLane(cmd.EntityID)
		return err
	case domain.CommandSetWeeks:
		var data domain.WeeksData
		if err := decodeData(cmd, &data); err != nil {
			return err
		}
		return ed.SetWeeks(data.Weeks)
	default:
		return fmt.Errorf("%w: %q", errUnknownCommand, cmd.Type)
	}
}

func entityTypeFor(cmdType string) string {
	switch cmdType {
	case domain.CommandCreateTask, domain.CommandUpdateTask, domain.CommandDeleteTask, domain.CommandToggleTask:
		return domain.EntityTypeTask
	case domain.CommandCreateLane, domain.CommandDeleteLane:
		return domain.EntityTypeLane
	case domain.CommandSetWeeks:
		return domain.EntityTypeBoard
	}
	return ""
}

func decodeData(cmd domain.Command, out any) error {
	if len(cmd.Data) == 0 {
		return errMissingData
	}
	if err := sonic.Unmarshal(cmd.Data, out); err != nil {
		return fmt.Errorf("invalid %s data: %w", cmd.Type, err)
	}
	return nil
}
