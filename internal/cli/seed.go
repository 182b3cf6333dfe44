package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/fixtures"
	"github.com/tbourn/go-narrator-backend/internal/repo"
)

func newSeedCmd(a *app) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load games, scenes, rules, rooms and LLM configurations from a fixture",
		Long: "Seed writes a YAML fixture in one transaction. Games that already exist are " +
			"skipped, so the same fixture can be applied repeatedly.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixtures.Load(args[0])
			if err != nil {
				return err
			}
			return a.withDB(func(db *gorm.DB) error {
				if migrate {
					if err := repo.AutoMigrate(db); err != nil {
						return fmt.Errorf("migrate: %w", err)
					}
				}
				s := &fixtures.Seeder{DB: db, Log: a.log}
				res, err := s.Seed(cmd.Context(), f)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				out := cmd.OutOrStdout()
				if a.jsonOut {
					return json.NewEncoder(out).Encode(res)
				}
				fmt.Fprintf(out, "games=%d scenes=%d rules=%d llm_configs=%d rooms=%d members=%d\n",
					res.Games, res.Scenes, res.Rules, res.LLMConfigs, res.Rooms, res.Members)
				if len(res.SkippedGames) > 0 {
					fmt.Fprintf(out, "skipped: %s\n", strings.Join(res.SkippedGames, ", "))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "run schema migrations before seeding")
	return cmd
}
