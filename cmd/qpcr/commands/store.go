package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/qpcr/internal/store"
	"github.com/wonny/qpcr/pkg/config"
	"github.com/wonny/qpcr/pkg/database"
)

// openStore connects, migrates and returns the run repository
func openStore(ctx context.Context, cfg *config.Config) (*database.DB, *store.Repository, error) {
	db, err := database.New(ctx, cfg)
	if errors.Is(err, database.ErrDisabled) {
		return nil, nil, errors.New("persistence needs DATABASE_URL")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := store.Migrate(ctx, db.Pool); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return db, store.NewRepository(db.Pool), nil
}
