package cli

import (
	"fmt"

	"github.com/ppiankov/infodemic/internal/evidence"
	"github.com/ppiankov/infodemic/internal/game"
	"github.com/ppiankov/infodemic/internal/llm"
	"github.com/ppiankov/infodemic/internal/model"
	"github.com/ppiankov/infodemic/internal/pipeline"
	"github.com/ppiankov/infodemic/internal/score"
	"github.com/ppiankov/infodemic/internal/selector"
	"github.com/ppiankov/infodemic/internal/store"
	"github.com/ppiankov/infodemic/internal/worker"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app holds the services one command invocation works with
type app struct {
	cfg     *model.Config
	logger  *zap.Logger
	store   *store.Store
	session *game.Session
}

// openStore loads configuration and opens the database without a provider,
// for commands that never call the generator
func openStore() (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.Log, verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("store opened", zap.String("path", cfg.Store.Path))
	return &app{cfg: cfg, logger: logger, store: s}, nil
}

// openApp wires the full service graph: rate-limited provider, cached
// catalog, pipeline, evidence aggregator, scoring engine and session.
// Without a provider the session still serves evidence and outlet calls.
func openApp(needProvider bool) (*app, error) {
	a, err := openStore()
	if err != nil {
		return nil, err
	}

	var provider llm.Provider
	if needProvider {
		p, err := llm.NewProvider(llm.ConfigFromModel(a.cfg.LLM))
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("create provider: %w", err)
		}
		limiter := worker.NewLimiter(a.cfg.LLM.RequestsPerSecond, a.cfg.LLM.Burst)
		provider = llm.RateLimited(p, limiter)
		a.logger.Debug("provider ready",
			zap.String("provider", provider.Name()),
			zap.String("model", a.cfg.LLM.Model))
	}

	catalog := store.NewCachedCatalog(a.store, store.DefaultCatalogTTL)
	sel := selector.New(catalog, selector.LimitsFromConfig(a.cfg.Generation), a.logger)
	p := pipeline.New(catalog, sel, provider, a.cfg.Generation, a.logger)
	agg := evidence.New(a.store, a.cfg.Evidence.PanelCapacity, a.logger)
	engine := score.New(a.store, agg, provider, a.cfg.Generation, a.cfg.Reputation, a.logger)
	a.session = game.NewSession(a.store, p, agg, engine, a.cfg.Reputation.DefaultMediaID, a.logger)
	return a, nil
}

// Close releases the store and flushes the logger
func (a *app) Close() error {
	err := a.store.Close()
	_ = a.logger.Sync()
	return err
}
