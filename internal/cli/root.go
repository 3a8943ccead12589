package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/config"
	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/logger"
)

const serviceName = "bookingd"

func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Rental booking and inventory reservation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewTokenCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runtime is what every database-backed command starts from.
type runtime struct {
	cfg  *config.Config
	log  *zap.Logger
	pool *pgxpool.Pool
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.IsProduction)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Sync(log)
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	return &runtime{cfg: cfg, log: log, pool: pool}, nil
}

func (r *runtime) close() {
	r.pool.Close()
	logger.Sync(r.log)
}
