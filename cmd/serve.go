package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/srscore/internal/scheduler"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background maintenance jobs until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		s := scheduler.New(a.engine, a.cards, a.curves, a.cfg.Jobs, a.logger)
		if err := s.Start(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("srscore running",
			zap.String("database", a.db.Dialect.Name()),
			zap.Int("curves", a.engine.Curves().Len()))

		<-ctx.Done()
		a.logger.Info("shutting down")
		s.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.SnapshotCurves(shutdownCtx); err != nil {
			return fmt.Errorf("final snapshot: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
