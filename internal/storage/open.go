package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"quizbuilder/internal/config"
	"quizbuilder/internal/domain"
)

// Stores bundles the document store and journal of one backend.
type Stores struct {
	Documents domain.DocumentStore
	Journal   Journal
}

// Close releases the backend. Documents and Journal share a connection.
func (s *Stores) Close() error {
	if s == nil || s.Documents == nil {
		return nil
	}
	return s.Documents.Close()
}

// Open chooses the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*Stores, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("storage")

	switch cfg.Driver {
	case DialectSQLite, "":
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Debug("Opened sqlite store", zap.String("path", cfg.Path))
		return &Stores{Documents: NewSQLStore(db), Journal: NewSQLJournal(db, cfg.JournalLimit)}, nil
	case DialectPostgres, DialectMySQL:
		db, err := OpenSQL(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		log.Debug("Opened sql store", zap.String("driver", cfg.Driver))
		return &Stores{Documents: NewSQLStore(db), Journal: NewSQLJournal(db, cfg.JournalLimit)}, nil
	case "mongo":
		m, err := OpenMongo(ctx, cfg.DSN, cfg.Database, cfg.JournalLimit, log)
		if err != nil {
			return nil, err
		}
		return &Stores{Documents: m, Journal: m}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
