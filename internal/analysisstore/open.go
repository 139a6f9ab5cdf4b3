package analysisstore

import (
	"context"
	"fmt"

	"github.com/muhammadolammi/resumeworker/internal/config"
	"github.com/muhammadolammi/resumeworker/internal/database"
)

// Open builds the store selected by cfg.Backend. db is only used by the postgres backend.
func Open(ctx context.Context, cfg config.StoreConfig, db database.DBTX) (Store, error) {
	switch cfg.Backend {
	case config.StoreMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.Collection)
	case config.StorePostgres:
		return NewPostgresStore(db), nil
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown analysis store %q", cfg.Backend)
	}
}
