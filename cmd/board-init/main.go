package main

import (
	"context"
	"errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"github.com/tang-isab/swimlane-chart/config"
	"github.com/tang-isab/swimlane-chart/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.WithField("backend", cfg.Storage.Backend).Info("storage init starting")

	ctx := context.Background()

	if cfg.Storage.Backend == config.BackendSQLite {
		s, err := storage.OpenSQLite(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		if err := s.Close(); err != nil {
			log.Warnf("close sqlite: %v", err)
		}
	}

	if cfg.Storage.ConnectionString != "" {
		var tables []string
		if cfg.Storage.Backend == config.BackendTable {
			tables = append(tables, cfg.Storage.Table)
		}
		if err := createTables(ctx, cfg.Storage.ConnectionString, tables); err != nil {
			log.Fatalf("create tables: %v", err)
		}
		if err := createQueues(ctx, cfg.Storage.ConnectionString, []string{cfg.Storage.EventsQueue}); err != nil {
			log.Fatalf("create queues: %v", err)
		}
	}

	log.Info("storage init complete")
}

func createTables(ctx context.Context, connStr string, names []string) error {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		c := svc.NewClient(name)
		_, err := c.CreateTable(ctx, nil)
		if err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
				return err
			}
		}
		log.WithField("table", name).Info("table ready")
	}
	return nil
}

func createQueues(ctx context.Context, connStr string, names []string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
		if err != nil {
			return err
		}
		_, err = q.Create(ctx, nil)
		if err != nil {
			var respErr *azcore.ResponseError
			if !(errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists") {
				return err
			}
		}
		log.WithField("queue", name).Info("queue ready")
	}
	return nil
}
