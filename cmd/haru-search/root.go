package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/haru-search/internal/config"
	"github.com/dshills/haru-search/internal/history"
	"github.com/dshills/haru-search/internal/ratelimit"
	"github.com/dshills/haru-search/internal/searcher"
	"github.com/dshills/haru-search/internal/storage"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "haru-search",
		Short:        "Relevance-ranked search for companions, users, messages and checkpoints",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a TOML config file (default $"+config.EnvConfigPath+")")

	open := func(cmd *cobra.Command) (*app, error) {
		return openApp(configPath, cmd.ErrOrStderr())
	}

	root.AddCommand(
		newServeCmd(open),
		newMCPCmd(open),
		newSearchCmd(open),
		newTagsCmd(open),
		newVersionCmd(),
	)
	return root
}

type opener func(cmd *cobra.Command) (*app, error)

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *storage.SQLiteStorage
	searcher *searcher.Searcher
	history  *history.Log
	limiter  *ratelimit.Limiter
}

func openApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	store, err := storage.NewSQLiteStorage(cfg.Store.DBPath, storage.WithMaxOpenConns(cfg.Store.MaxOpenConns))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s, err := searcher.NewSearcher(store,
		searcher.WithLogger(logger),
		searcher.WithQueryTimeout(cfg.QueryTimeout()),
		searcher.WithCache(cfg.Search.CacheSize, cfg.CacheTTL()),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize searcher: %w", err)
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
		MaxCallers:        ratelimit.DefaultConfig.MaxCallers,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		searcher: s,
		history:  history.NewLog(store, cfg.History.MaxEntries),
		limiter:  limiter,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
