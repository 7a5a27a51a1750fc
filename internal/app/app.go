// Package app wires configuration to the concrete store and data source the
// binaries use.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/wuxia-session/internal/config"
	"github.com/jwebster45206/wuxia-session/internal/remote"
	istorage "github.com/jwebster45206/wuxia-session/internal/storage"
	"github.com/jwebster45206/wuxia-session/pkg/offline"
	"github.com/jwebster45206/wuxia-session/pkg/source"
	"github.com/jwebster45206/wuxia-session/pkg/storage"
)

// OpenStore opens the preview store named by cfg.PreviewStore. Redis is
// waited for until ctx expires.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Store, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	switch cfg.PreviewStore {
	case config.StoreRedis:
		rs, err := istorage.NewRedisStorage(cfg.RedisURL, log)
		if err != nil {
			return nil, err
		}
		if err := rs.WaitForConnection(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return rs, nil
	case config.StoreSQLite:
		return istorage.OpenSQLite(cfg.SQLitePath, log)
	case config.StoreMemory:
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown preview store %q", cfg.PreviewStore)
	}
}

// NewSource returns the data source named by cfg.Source. store is only used
// by the offline simulator and may be nil for the remote source.
func NewSource(cfg *config.Config, store storage.Store, log *slog.Logger) (source.DataSource, error) {
	switch cfg.Source {
	case config.SourceRemote:
		return remote.NewClient(cfg.APIBaseURL, cfg.AuthToken, cfg.RequestTimeout, log), nil
	case config.SourceOffline:
		if store == nil {
			return nil, fmt.Errorf("offline source needs a preview store")
		}
		return offline.NewSimulator(store, log), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
