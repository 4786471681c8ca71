package inits

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/CorrelAid/contact_form_guard/config"
	"github.com/CorrelAid/contact_form_guard/operations"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// Store is the opened contact store. Close releases the database pool, if
// any. Mem is set only for the in-memory driver.
type Store struct {
	operations.ContactStore
	Mem   *operations.MemStore
	close func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// DBInit opens the store selected by cfg.StoreDriver.
func DBInit(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case "mysql":
		db, err := connectMySQL(ctx, cfg.MySQLDSN, cfg.DBConnectTimeout)
		if err != nil {
			return nil, err
		}
		store := operations.NewSQLStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("contact store ready", zap.String("driver", "mysql"))
		return &Store{ContactStore: store, close: db.Close}, nil
	default:
		mem, err := operations.NewMemStore()
		if err != nil {
			return nil, err
		}
		logger.Info("contact store ready", zap.String("driver", "memory"))
		return &Store{ContactStore: mem, Mem: mem}, nil
	}
}

func connectMySQL(ctx context.Context, dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}
