package storage

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"github.com/tang-isab/swimlane-chart/domain"
)

// EventBoardSaved is the type of the message published after each save.
const EventBoardSaved = "board-saved"

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// SavedEvent is the message body published to the events queue.
type SavedEvent struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Weeks     int    `json:"weeks"`
	Lanes     int    `json:"swimlanes"`
	Tasks     int    `json:"tasks"`
}

// QueueNotifier publishes a SavedEvent to an Azure storage queue.
type QueueNotifier struct {
	queue queueClient
}

func NewQueueNotifier(connStr, queue string) (*QueueNotifier, error) {
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queue, queueClientOptions())
	if err != nil {
		return nil, wrapErr("connect", "queue", err)
	}
	return &QueueNotifier{queue: q}, nil
}

func (n *QueueNotifier) BoardSaved(ctx context.Context, snap domain.Snapshot) error {
	ev := SavedEvent{
		Type:      EventBoardSaved,
		Timestamp: snap.ServerTimestamp,
		Weeks:     snap.Weeks,
		Lanes:     len(snap.Lanes),
		Tasks:     len(snap.Tasks),
	}
	data, err := sonic.MarshalString(ev)
	if err != nil {
		return wrapErr("encode", "queue", err)
	}
	_, err = n.queue.EnqueueMessage(ctx, data, nil)
	return wrapErr("publish", "queue", err)
}
