package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/repo"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(func(db *gorm.DB) error {
				if err := repo.AutoMigrate(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				a.log.Info().Str("driver", a.driver).Msg("schema migrated")
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}
