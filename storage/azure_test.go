package storage

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"github.com/tang-isab/swimlane-chart/domain"
)

type fakeTable struct {
	mu       sync.Mutex
	entities map[string][]byte
	modes    []aztables.UpdateMode
	failGet  error
}

func newFakeTable() *fakeTable {
	return &fakeTable{entities: map[string][]byte{}}
}

func (f *fakeTable) GetEntity(ctx context.Context, pk, rk string, o *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return aztables.GetEntityResponse{}, f.failGet
	}
	v, ok := f.entities[pk+"/"+rk]
	if !ok {
		return aztables.GetEntityResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceNotFound"}
	}
	return aztables.GetEntityResponse{Value: v}, nil
}

func (f *fakeTable) UpsertEntity(ctx context.Context, entity []byte, o *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error) {
	var keys struct {
		PartitionKey string `json:"PartitionKey"`
		RowKey       string `json:"RowKey"`
	}
	if err := sonic.Unmarshal(entity, &keys); err != nil {
		return aztables.UpsertEntityResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities[keys.PartitionKey+"/"+keys.RowKey] = entity
	if o != nil {
		f.modes = append(f.modes, o.UpdateMode)
	}
	return aztables.UpsertEntityResponse{}, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	messages []string
	fail     error
}

func (f *fakeQueue) EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return azqueue.EnqueueMessagesResponse{}, f.fail
	}
	f.messages = append(f.messages, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

func TestTableStore(t *testing.T) {
	ft := newFakeTable()
	s := &TableStore{table: ft}
	exerciseStore(t, s)

	if len(ft.entities) != 1 {
		t.Fatalf("expected a single board entity, got %d", len(ft.entities))
	}
	for _, m := range ft.modes {
		if m != aztables.UpdateModeReplace {
			t.Fatalf("unexpected update mode %v", m)
		}
	}
}

func TestTableStoreEntityShape(t *testing.T) {
	ft := newFakeTable()
	s := &TableStore{table: ft}
	snap := sampleSnapshot()
	snap.LastSaved = "2024-01-01T00:00:00.000Z"
	if err := s.Save(context.Background(), snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	var ent boardEntity
	if err := sonic.Unmarshal(ft.entities[boardPartition+"/"+boardRow], &ent); err != nil {
		t.Fatalf("decode entity: %v", err)
	}
	if ent.LastSaved != snap.LastSaved || ent.Data == "" {
		t.Fatalf("unexpected entity %+v", ent)
	}
}

func TestTableStoreLoadError(t *testing.T) {
	ft := newFakeTable()
	ft.failGet = errors.New("throttled")
	_, err := (&TableStore{table: ft}).Load(context.Background())
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Backend != "table" || errors.Is(err, ErrEmpty) {
		t.Fatalf("expected table OpError, got %v", err)
	}
}

func TestQueueNotifier(t *testing.T) {
	fq := &fakeQueue{}
	n := &QueueNotifier{queue: fq}
	snap := sampleSnapshot()
	snap.ServerTimestamp = "2024-01-01T00:00:00.000Z"
	if err := n.BoardSaved(context.Background(), snap); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(fq.messages) != 1 {
		t.Fatalf("messages = %d", len(fq.messages))
	}
	var ev SavedEvent
	if err := sonic.UnmarshalString(fq.messages[0], &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := SavedEvent{Type: EventBoardSaved, Timestamp: snap.ServerTimestamp, Weeks: 4, Lanes: 1, Tasks: 1}
	if ev != want {
		t.Fatalf("event = %+v, want %+v", ev, want)
	}

	fq.fail = errors.New("queue down")
	if err := n.BoardSaved(context.Background(), domain.Snapshot{}); err == nil {
		t.Fatal("expected publish error")
	}
}
