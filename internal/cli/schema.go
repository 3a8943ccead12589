package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nekogravitycat/rental-booking-backend/internal/db"
)

func NewSchemaCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				fmt.Fprint(cmd.OutOrStdout(), db.Schema())
				return nil
			}

			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if err := db.EnsureSchema(cmd.Context(), rt.pool); err != nil {
				return err
			}
			rt.log.Info("schema applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the DDL instead of applying it")
	return cmd
}
