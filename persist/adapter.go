package persist

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/tang-isab/swimlane-chart/domain"
)

// Source says where a board came from or went to.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// Notification messages shown to the user.
const (
	MsgLoadedRemote = "Loaded shared data"
	MsgLoadedLocal  = "Loaded local data"
	MsgSavedRemote  = "Saved to shared storage"
	MsgSavedLocal   = "Saved locally only"
)

// RemoteStore is the shared data service. *Remote implements it.
type RemoteStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) (string, error)
}

// LoadResult is the outcome of Adapter.Load.
type LoadResult struct {
	Board   *domain.Board
	Source  Source
	Message string
	Warning bool
}

// SaveResult is the outcome of Adapter.Save.
type SaveResult struct {
	Source    Source
	Timestamp string
	Message   string
	Warning   bool
}

// Adapter loads and saves boards, preferring the shared data service and
// falling back to the local store.
type Adapter struct {
	remote RemoteStore
	local  LocalStore
	logger *log.Logger
	now    func() time.Time
}

// NewAdapter wires an adapter. remote may be nil to use the local store only.
func NewAdapter(remote RemoteStore, local LocalStore, logger *log.Logger) *Adapter {
	if local == nil {
		panic("persist.NewAdapter: local store is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Adapter{remote: remote, local: local, logger: logger, now: time.Now}
}

// Load returns the stored board. It tries the data service, then the local
// store, then the built-in default board, and never fails.
func (a *Adapter) Load(ctx context.Context) LoadResult {
	if a.remote != nil {
		snap, err := a.remote.Load(ctx)
		if err == nil {
			return LoadResult{Board: boardFromSnapshot(snap), Source: SourceRemote, Message: MsgLoadedRemote}
		}
		a.logger.WithError(err).Warn("could not load from data service, trying local store")
	}

	b, err := a.loadLocal(ctx)
	switch {
	case err == nil:
		return LoadResult{Board: b, Source: SourceLocal, Message: MsgLoadedLocal, Warning: a.remote != nil}
	case errors.Is(err, ErrNotFound):
	default:
		a.logger.WithError(err).Warn("could not load local data")
	}
	res := LoadResult{Board: domain.DefaultBoard(), Source: SourceDefault}
	if a.remote != nil {
		res.Message = MsgLoadedLocal
		res.Warning = true
	}
	return res
}

func (a *Adapter) loadLocal(ctx context.Context) (*domain.Board, error) {
	data, err := a.local.Get(ctx, LocalKey)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return boardFromSnapshot(snap), nil
}

// boardFromSnapshot keeps the default lanes and tasks when the stored
// document lacks them.
func boardFromSnapshot(snap domain.Snapshot) *domain.Board {
	def := domain.DefaultBoard()
	if snap.Lanes == nil {
		snap.Lanes = def.Lanes
	}
	if snap.Tasks == nil {
		snap.Tasks = def.Tasks
	}
	return snap.Board()
}

// Save stores the board. A failing data service degrades to the local store
// with a warning; an error is returned only when the local store fails too.
func (a *Adapter) Save(ctx context.Context, b *domain.Board) (SaveResult, error) {
	snap := domain.NewSnapshot(b, a.now())
	if a.remote != nil {
		ts, err := a.remote.Save(ctx, snap)
		if err == nil {
			return SaveResult{Source: SourceRemote, Timestamp: ts, Message: MsgSavedRemote}, nil
		}
		a.logger.WithError(err).Warn("could not save to data service, falling back to local store")
	}
	if err := a.saveLocal(ctx, snap); err != nil {
		return SaveResult{}, err
	}
	res := SaveResult{Source: SourceLocal, Timestamp: snap.Timestamp}
	if a.remote != nil {
		res.Message = MsgSavedLocal
		res.Warning = true
	}
	return res, nil
}

func (a *Adapter) saveLocal(ctx context.Context, snap domain.Snapshot) error {
	data, err := sonic.Marshal(snap)
	if err != nil {
		return err
	}
	return a.local.Set(ctx, LocalKey, data)
}

// Reset clears the local store and returns a fresh default board.
func (a *Adapter) Reset(ctx context.Context) (*domain.Board, error) {
	if err := a.local.Delete(ctx, LocalKey); err != nil {
		return nil, err
	}
	return domain.DefaultBoard(), nil
}
