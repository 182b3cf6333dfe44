package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/go-narrator-backend/internal/services"
)

// ErrDrift is returned by replay --fail-on-drift when the stored pointer
// disagrees with the replayed log.
var ErrDrift = errors.New("stored position differs from replayed log")

// ReplayReport compares the stored session pointer with the position rebuilt
// from the interaction log.
type ReplayReport struct {
	SessionID       string `json:"session_id"`
	GameID          string `json:"game_id"`
	Status          string `json:"status"`
	StoredSceneID   string `json:"stored_scene_id"`
	StoredIndex     int    `json:"stored_index"`
	ReplaySceneID   string `json:"replayed_scene_id"`
	ReplaySceneName string `json:"replayed_scene_name"`
	ReplayIndex     int    `json:"replayed_index"`
	Drift           bool   `json:"drift"`
}

func newReplayCmd(a *app) *cobra.Command {
	var failOnDrift bool
	cmd := &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Rebuild a session's position from its log and compare it with the stored one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rep ReplayReport
			err := a.withDB(func(db *gorm.DB) error {
				svc := services.NewInteractionService(db, a.log)
				pos, sess, err := svc.Position(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rep = ReplayReport{
					SessionID:       sess.ID,
					GameID:          sess.GameID,
					Status:          sess.Status,
					StoredIndex:     sess.CurrentSceneIndex,
					ReplaySceneID:   pos.Scene.ID,
					ReplaySceneName: pos.Scene.Name,
					ReplayIndex:     pos.Index,
				}
				if sess.CurrentSceneID != nil {
					rep.StoredSceneID = *sess.CurrentSceneID
				}
				rep.Drift = rep.StoredSceneID != rep.ReplaySceneID || rep.StoredIndex != rep.ReplayIndex
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := json.NewEncoder(out).Encode(rep); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "session  %s (game %s, %s)\n", rep.SessionID, rep.GameID, rep.Status)
				fmt.Fprintf(out, "stored   scene=%s index=%d\n", rep.StoredSceneID, rep.StoredIndex)
				fmt.Fprintf(out, "replayed scene=%s %q index=%d\n", rep.ReplaySceneID, rep.ReplaySceneName, rep.ReplayIndex)
				if rep.Drift {
					fmt.Fprintln(out, "drift    yes")
				} else {
					fmt.Fprintln(out, "drift    no")
				}
			}
			if rep.Drift {
				a.log.Warn().Str("session_id", rep.SessionID).Msg("replay drift")
				if failOnDrift {
					return ErrDrift
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnDrift, "fail-on-drift", false, "exit non-zero when the stored position drifted")
	return cmd
}
