package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"imitgame/internal/game"
	"imitgame/internal/history"
	"imitgame/internal/metrics"
	"imitgame/internal/server"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded games, stats and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(addr) != "" {
				c.cfg.HTTPAddr = strings.TrimSpace(addr)
			}
			hist, store, err := c.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			collector := metrics.NewCollector("imitgame", reg)
			if err := seedMetrics(cmd.Context(), hist, collector); err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              c.cfg.HTTPAddr,
				Handler:           server.New(hist, reg).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			errCh := make(chan error, 1)
			go func() { errCh <- httpSrv.ListenAndServe() }()
			c.logger.Info("http server listening", zap.String("addr", c.cfg.HTTPAddr), zap.String("storage", c.cfg.StoragePath))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// seedMetrics replays stored outcomes so game counters cover past games.
func seedMetrics(ctx context.Context, hist *history.Manager, collector *metrics.Collector) error {
	return hist.ForEach(ctx, func(r history.Record) error {
		collector.Observe(game.Event{GameID: r.GameID, Kind: game.EventOutcome, Outcome: &r.Outcome})
		return nil
	})
}
