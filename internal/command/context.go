package command

import (
	"context"
	"log/slog"

	"github.com/jwebster45206/wuxia-session/internal/app"
	"github.com/jwebster45206/wuxia-session/internal/config"
	"github.com/jwebster45206/wuxia-session/internal/logger"
	"github.com/jwebster45206/wuxia-session/pkg/offline"
	"github.com/jwebster45206/wuxia-session/pkg/storage"
	"github.com/spf13/cobra"
)

// CommandContext holds what every subcommand needs.
type CommandContext struct {
	Ctx       context.Context
	Config    *config.Config
	Store     storage.Store
	Simulator *offline.Simulator
	Logger    *slog.Logger
	JSONMode  bool
}

// Close releases the store.
func (c *CommandContext) Close() {
	_ = c.Store.Close() // Ignore error on close
}

// GetContext loads config, applies flag overrides and opens the simulator.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.PreviewStore = store
	}
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.SQLitePath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	jsonMode, _ := cmd.Flags().GetBool("json")

	log := logger.SetupTo(cmd.ErrOrStderr(), cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Ctx:       ctx,
		Config:    cfg,
		Store:     store,
		Simulator: offline.NewSimulator(store, log),
		Logger:    log,
		JSONMode:  jsonMode,
	}, nil
}
