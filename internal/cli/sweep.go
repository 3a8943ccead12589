package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nekogravitycat/rental-booking-backend/internal/app"
)

func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue pending bookings as no-show once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			container, err := app.NewContainer(ctx, rt.cfg, rt.pool, rt.log)
			if err != nil {
				return err
			}
			defer container.Close()

			n, err := container.Sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "marked %d booking(s) as no-show\n", n)
			return nil
		},
	}
}
