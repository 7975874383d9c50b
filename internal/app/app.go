// Package app wires configuration, storage and logging for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/iliyamo/space-reservation/internal/config"
	"github.com/iliyamo/space-reservation/internal/database"
	"github.com/iliyamo/space-reservation/internal/repository"
	"github.com/iliyamo/space-reservation/internal/repository/dynamostore"
	"github.com/iliyamo/space-reservation/internal/repository/mysqlstore"
)

// tableWait bounds how long Init waits for new DynamoDB tables.
const tableWait = 2 * time.Minute

// NewLogger returns the JSON logger shared by every component.  Debug
// records are kept outside production.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelDebug
	if strings.EqualFold(env, "prod") || strings.EqualFold(env, "production") {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// OpenStore connects to the backend selected in cfg.  Init additionally
// prepares the schema: migrations for MySQL, tables and seed rows for
// DynamoDB.
func OpenStore(ctx context.Context, cfg config.BackendConfig, init bool) (repository.Store, error) {
	switch cfg.Backend {
	case repository.BackendMySQL:
		db, err := database.OpenMySQL(cfg.MySQLParams())
		if err != nil {
			return nil, fmt.Errorf("mysql: %w", err)
		}
		if init {
			if err := database.Migrate(db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return mysqlstore.New(db), nil

	case repository.BackendDynamoDB:
		client, err := database.OpenDynamo(ctx, cfg.DynamoParams())
		if err != nil {
			return nil, fmt.Errorf("dynamodb: %w", err)
		}
		store := dynamostore.New(client, cfg.DynamoDB.TablePrefix)
		if init {
			if err := store.EnsureTables(ctx, tableWait); err != nil {
				return nil, err
			}
		}
		return store, nil
	}
	return nil, config.ValidateBackend(cfg.Backend)
}
