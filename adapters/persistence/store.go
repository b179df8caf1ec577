package persistence

import (
	"context"
	"fmt"

	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/user"
	"github.com/khoahotran/folio/pkg/logger"
)

// Store bundles the repositories of the configured document database.
type Store struct {
	Portfolios portfolio.Repository
	Users      user.Repository
	Close      func()
}

// OpenStore connects to db.driver and prepares its schema: migrations for
// postgres, unique indexes for mongo.
func OpenStore(ctx context.Context, cfg config.Config, log logger.Logger) (*Store, error) {
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		if err := RunMigrations(cfg, log); err != nil {
			return nil, err
		}
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Store{
			Portfolios: NewPostgresPortfolioRepo(pool, log),
			Users:      NewPostgresUserRepo(pool, log),
			Close:      pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := NewMongoClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.DB.MongoDatabase)
		if err := EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &Store{
			Portfolios: NewMongoPortfolioRepo(db, log),
			Users:      NewMongoUserRepo(db, log),
			Close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Error("Failed to disconnect MongoDB", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
}
