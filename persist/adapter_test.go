package persist

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tang-isab/swimlane-chart/domain"
)

type stubRemote struct {
	loadFn func(ctx context.Context) (domain.Snapshot, error)
	saveFn func(ctx context.Context, snap domain.Snapshot) (string, error)
	saved  []domain.Snapshot
}

func (s *stubRemote) Load(ctx context.Context) (domain.Snapshot, error) {
	if s.loadFn == nil {
		return domain.Snapshot{}, errors.New("unexpected Load call")
	}
	return s.loadFn(ctx)
}

func (s *stubRemote) Save(ctx context.Context, snap domain.Snapshot) (string, error) {
	s.saved = append(s.saved, snap)
	if s.saveFn == nil {
		return "", errors.New("unexpected Save call")
	}
	return s.saveFn(ctx, snap)
}

type memStore struct {
	data   map[string][]byte
	setErr error
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func quietLogger() (*log.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return logger, hook
}

func TestAdapterLoadPrefersRemote(t *testing.T) {
	logger, _ := quietLogger()
	remote := &stubRemote{loadFn: func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{Weeks: 4, Lanes: []domain.Lane{{ID: "a", Name: "A"}}, Tasks: []domain.Task{}}, nil
	}}
	a := NewAdapter(remote, newMemStore(), logger)

	res := a.Load(context.Background())
	if res.Source != SourceRemote || res.Warning || res.Message != MsgLoadedRemote {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Board.Weeks != 4 || len(res.Board.Lanes) != 1 || len(res.Board.Tasks) != 0 {
		t.Fatalf("unexpected board %+v", res.Board)
	}
}

func TestAdapterLoadRemoteMissingFieldsUsesDefaults(t *testing.T) {
	logger, _ := quietLogger()
	remote := &stubRemote{loadFn: func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{}, nil
	}}
	res := NewAdapter(remote, newMemStore(), logger).Load(context.Background())
	if !reflect.DeepEqual(res.Board, domain.DefaultBoard()) {
		t.Fatalf("expected default board, got %+v", res.Board)
	}
}

func TestAdapterLoadFallsBackToLocal(t *testing.T) {
	logger, hook := quietLogger()
	local := newMemStore()
	stored := domain.NewSnapshot(&domain.Board{Weeks: 6, Lanes: []domain.Lane{{ID: "l", Name: "L"}}, Tasks: []domain.Task{}}, time.Now())
	data, _ := sonic.Marshal(stored)
	local.data[LocalKey] = data

	remote := &stubRemote{loadFn: func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{}, &StatusError{Method: "GET", Code: 503}
	}}
	res := NewAdapter(remote, local, logger).Load(context.Background())
	if res.Source != SourceLocal || !res.Warning || res.Message != MsgLoadedLocal {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Board.Weeks != 6 {
		t.Fatalf("weeks = %d", res.Board.Weeks)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Level != log.WarnLevel {
		t.Fatal("expected a warning to be logged")
	}
}

func TestAdapterLoadDefaultWhenNothingStored(t *testing.T) {
	logger, _ := quietLogger()
	res := NewAdapter(nil, newMemStore(), logger).Load(context.Background())
	if res.Source != SourceDefault || res.Warning {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Board.Tasks) != 6 {
		t.Fatalf("expected default board, got %d tasks", len(res.Board.Tasks))
	}
}

func TestAdapterLoadCorruptLocal(t *testing.T) {
	logger, _ := quietLogger()
	local := newMemStore()
	local.data[LocalKey] = []byte("{not json")
	res := NewAdapter(nil, local, logger).Load(context.Background())
	if res.Source != SourceDefault {
		t.Fatalf("source = %s, want default", res.Source)
	}
}

func TestAdapterSaveRemote(t *testing.T) {
	logger, _ := quietLogger()
	remote := &stubRemote{saveFn: func(context.Context, domain.Snapshot) (string, error) {
		return "2024-01-01T00:00:00Z", nil
	}}
	local := newMemStore()
	a := NewAdapter(remote, local, logger)

	res, err := a.Save(context.Background(), domain.DefaultBoard())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Source != SourceRemote || res.Timestamp != "2024-01-01T00:00:00Z" || res.Warning {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(remote.saved) != 1 || len(remote.saved[0].Tasks) != 6 || remote.saved[0].Timestamp == "" {
		t.Fatalf("unexpected saved snapshot %+v", remote.saved)
	}
	if _, ok := local.data[LocalKey]; ok {
		t.Fatal("local store must not be written when the remote save succeeds")
	}
}

func TestAdapterSaveFallsBackToLocal(t *testing.T) {
	logger, _ := quietLogger()
	remote := &stubRemote{saveFn: func(context.Context, domain.Snapshot) (string, error) {
		return "", errors.New("connection refused")
	}}
	local := newMemStore()
	a := NewAdapter(remote, local, logger)
	a.now = func() time.Time { return time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC) }

	res, err := a.Save(context.Background(), domain.DefaultBoard())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.Source != SourceLocal || !res.Warning || res.Message != MsgSavedLocal {
		t.Fatalf("unexpected result %+v", res)
	}
	var snap domain.Snapshot
	if err := sonic.Unmarshal(local.data[LocalKey], &snap); err != nil {
		t.Fatalf("decode local: %v", err)
	}
	if snap.Timestamp != "2024-02-03T04:05:06.000Z" || len(snap.Tasks) != 6 {
		t.Fatalf("unexpected local snapshot %+v", snap)
	}
}

func TestAdapterSaveLocalFailure(t *testing.T) {
	logger, _ := quietLogger()
	local := newMemStore()
	local.setErr = errors.New("disk full")
	if _, err := NewAdapter(nil, local, logger).Save(context.Background(), domain.DefaultBoard()); err == nil {
		t.Fatal("expected error when no store accepts the save")
	}
}

func TestAdapterReset(t *testing.T) {
	logger, _ := quietLogger()
	local := newMemStore()
	local.data[LocalKey] = []byte(`{}`)
	b, err := NewAdapter(nil, local, logger).Reset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, ok := local.data[LocalKey]; ok {
		t.Fatal("local key must be cleared")
	}
	if !reflect.DeepEqual(b, domain.DefaultBoard()) {
		t.Fatal("reset must return the default board")
	}
}
