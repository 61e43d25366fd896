package persist

import (
	"context"
	"fmt"

	"github.com/ranchsim/server/internal/config"
	"go.uber.org/zap"
)

// OpenJournal builds the journal selected by cfg.Driver. It returns a nil
// Journal and no error for driver "none".
func OpenJournal(ctx context.Context, cfg config.JournalConfig, log *zap.Logger) (Journal, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "postgres":
		db, err := NewDB(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("journal database: %w", err)
		}
		if err := RunMigrations(ctx, db.Pool); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal migrations: %w", err)
		}
		return NewPGJournal(db), nil
	case "sqlite":
		j, err := OpenSQLiteJournal(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return j, nil
	}
	return nil, fmt.Errorf("unknown journal driver %q", cfg.Driver)
}
