package storage

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"github.com/tang-isab/swimlane-chart/domain"
)

const (
	boardPartition = "board"
	boardRow       = "shared"
)

type entityClient interface {
	GetEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
}

// TableStore keeps the snapshot as one Azure Tables entity.
type TableStore struct {
	table entityClient
}

type boardEntity struct {
	aztables.Entity
	Data      string `json:"Data"`
	LastSaved string `json:"LastSaved"`
}

// NewTableStore connects to the named table.
func NewTableStore(connStr, table string) (*TableStore, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, tablesClientOptions())
	if err != nil {
		return nil, wrapErr("connect", "table", err)
	}
	return &TableStore{table: svc.NewClient(table)}, nil
}

func (s *TableStore) Load(ctx context.Context) (domain.Snapshot, error) {
	resp, err := s.table.GetEntity(ctx, boardPartition, boardRow, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return domain.Snapshot{}, ErrEmpty
		}
		return domain.Snapshot{}, wrapErr("load", "table", err)
	}
	return decodeBoardEntity(resp.Value)
}

func decodeBoardEntity(value []byte) (domain.Snapshot, error) {
	var ent boardEntity
	if err := sonic.Unmarshal(value, &ent); err != nil {
		return domain.Snapshot{}, wrapErr("decode", "table", err)
	}
	var snap domain.Snapshot
	if err := sonic.UnmarshalString(ent.Data, &snap); err != nil {
		return domain.Snapshot{}, wrapErr("decode", "table", err)
	}
	return snap, nil
}

func (s *TableStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := sonic.MarshalString(snap)
	if err != nil {
		return wrapErr("encode", "table", err)
	}
	ent := boardEntity{
		Entity:    aztables.Entity{PartitionKey: boardPartition, RowKey: boardRow},
		Data:      data,
		LastSaved: snap.LastSaved,
	}
	raw, err := sonic.Marshal(ent)
	if err != nil {
		return wrapErr("encode", "table", err)
	}
	_, err = s.table.UpsertEntity(ctx, raw, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	return wrapErr("save", "table", err)
}
