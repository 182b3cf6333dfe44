package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/repo"
	"github.com/tbourn/go-narrator-backend/internal/services"
)

func newBoardCmd(a *app) *cobra.Command {
	var player string
	cmd := &cobra.Command{
		Use:   "board <session-id>",
		Short: "Print a player's element board for a session",
		Long:  "Board prints the rendered board. Without --player the session owner's board is shown.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(func(db *gorm.DB) error {
				ctx := cmd.Context()
				playerID := player
				if playerID == "" {
					sess, err := repo.GetSessionByID(ctx, db, args[0])
					if err != nil {
						return fmt.Errorf("session %s: %w", args[0], err)
					}
					playerID = sess.PlayerID
				}
				view, err := (&services.BoardService{DB: db}).Status(ctx, playerID, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if a.jsonOut {
					return json.NewEncoder(out).Encode(view)
				}
				fmt.Fprintln(out, view.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&player, "player", "", "player whose board to show")
	return cmd
}
