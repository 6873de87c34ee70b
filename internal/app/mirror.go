package app

import (
	"context"
	"fmt"
	"time"

	"github.com/GiveMeAjob-job/Bear-Review/internal/review/domain"
	"github.com/GiveMeAjob-job/Bear-Review/internal/review/infrastructure/persistence"
	"github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/database"
	_ "github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/GiveMeAjob-job/Bear-Review/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/GiveMeAjob-job/Bear-Review/pkg/config"
)

// OpenMirror connects to the configured mirror database and migrates it.
// DATABASE_URL selects PostgreSQL; otherwise SQLITE_PATH is used.
func OpenMirror(ctx context.Context, cfg *config.Config, schema domain.RecordSchema, loc *time.Location) (*persistence.RecordStore, database.Connection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DatabaseMaxConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open mirror database: %w", err)
	}

	store := persistence.NewRecordStore(conn, schema, loc)
	if err := store.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrate mirror database: %w", err)
	}
	return store, conn, nil
}
