package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/tang-isab/swimlane-chart/domain"
)

// Store keeps the single shared board snapshot.
type Store interface {
	// Load returns ErrEmpty when nothing was saved yet.
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}

// Notifier is told about every successful save.
type Notifier interface {
	BoardSaved(ctx context.Context, snap domain.Snapshot) error
}

// Stamp records the server save time on the snapshot and returns it.
func Stamp(snap *domain.Snapshot, now time.Time) string {
	ts := domain.FormatTimestamp(now)
	snap.LastSaved = ts
	snap.ServerTimestamp = ts
	return ts
}

// LoadOrDefault returns the stored snapshot, or the default board when the
// store is still empty.
func LoadOrDefault(ctx context.Context, s Store) (domain.Snapshot, error) {
	snap, err := s.Load(ctx)
	if err == nil {
		return snap, nil
	}
	if errors.Is(err, ErrEmpty) {
		b := domain.DefaultBoard()
		return domain.Snapshot{Weeks: b.Weeks, Lanes: b.Lanes, Tasks: b.Tasks}, nil
	}
	return domain.Snapshot{}, err
}

func tablesClientOptions() *aztables.ClientOptions {
	return &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
}

func queueClientOptions() *azqueue.ClientOptions {
	return &azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
}
