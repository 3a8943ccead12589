package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/app"
	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/tracing"
)

func NewServeCmd() *cobra.Command {
	var applySchema bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and background sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			// For receiving Ctrl+C / SIGTERM
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close()
			log := rt.log

			if applySchema {
				if err := db.EnsureSchema(ctx, rt.pool); err != nil {
					return err
				}
				log.Info("schema applied")
			}

			shutdownTracing, err := tracing.Init(serviceName, rt.cfg.JaegerEndpoint)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					log.Warn("tracer shutdown", zap.Error(err))
				}
			}()

			container, err := app.NewContainer(ctx, rt.cfg, rt.pool, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := container.Close(); err != nil {
					log.Warn("closing integrations", zap.Error(err))
				}
			}()

			if rt.cfg.Booking.NoShowSweepInterval > 0 {
				go container.Sweeper.Run(ctx)
			}

			// Use http.Server for graceful shutdown
			server := &http.Server{
				Addr:              rt.cfg.HTTPAddr,
				Handler:           container.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("server running", zap.String("addr", rt.cfg.HTTPAddr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				log.Info("shutdown signal received")
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn("server forced to shutdown", zap.Error(err))
			}
			log.Info("server exited gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&applySchema, "schema", false, "apply the database schema before serving")
	return cmd
}
