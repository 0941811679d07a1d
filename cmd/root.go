package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/srscore/internal/config"
	"github.com/example/srscore/internal/database"
	"github.com/example/srscore/internal/engine"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "srscore",
	Short:         "Spaced-repetition scheduling, forgetting curves and review queues",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("SRS_CONFIG"), "config file (yaml, json, toml or env)")
}

// app bundles everything a command needs
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
	engine *engine.Engine
	cards  *database.CardRepository
	curves *database.CurveRepository
	logs   *database.ReviewLogRepository
}

// newApp loads config, opens the database and restores persisted curves into the engine
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	e, err := engine.New(cfg.Engine(), engine.WithLogger(logger))
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		engine: e,
		cards:  database.NewCardRepository(db),
		curves: database.NewCurveRepository(db),
		logs:   database.NewReviewLogRepository(db),
	}

	saved, err := a.curves.LoadAll(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	for _, c := range saved {
		e.Curves().Restore(c)
	}
	logger.Debug("curves restored", zap.Int("count", len(saved)))
	return a, nil
}

// Close releases the database and flushes the logger
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("db close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
