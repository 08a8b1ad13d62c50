package core

import (
	"fmt"

	"go.uber.org/zap"

	"opscore/internal/config"
	"opscore/internal/infra/persistence/memory"
	"opscore/internal/infra/persistence/postgres"
	"opscore/internal/infra/persistence/sqlite"
	"opscore/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

type (
	Tx              = domain.Tx
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// OpenPersistentStore selects a backend from the storage configuration.
// Defaults to sqlite when the driver is unset.
func OpenPersistentStore(cfg config.Storage, engine *RulesEngine, logger *zap.Logger) (PersistentStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(cfg.SQLitePath, engine, logger)
	case StoragePostgres:
		return postgres.NewStore(cfg.PostgresDSN, engine, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
