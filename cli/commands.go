package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func (r *runner) newInvitationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invitations",
		Short: "Game day invitations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "send",
		Short: "Mail reply links for the next uninvited game day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := r.a.GameDays.SendInvitations(cmd.Context())
			if err != nil {
				return err
			}
			if report.GameDayID == 0 {
				return r.print(cmd.OutOrStdout(), report, "no game day awaiting invitations")
			}
			return r.print(cmd.OutOrStdout(), report,
				"game day %d: %d sent, %d failed", report.GameDayID, report.Sent, len(report.Failed))
		},
	})
	return cmd
}

func (r *runner) newRecordsCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Yearly player records",
	}
	recompute := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild every record and rank for a year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = time.Now().In(r.a.Cfg.Location).Year()
			}
			if year < 1900 || year > 9999 {
				return fmt.Errorf("invalid year %d", year)
			}
			if err := r.a.Standings.Recompute(cmd.Context(), year); err != nil {
				return err
			}
			return r.print(cmd.OutOrStdout(), map[string]int{"year": year}, "records for %d rebuilt", year)
		},
	}
	recompute.Flags().IntVar(&year, "year", 0, "year to rebuild (default: this year)")
	cmd.AddCommand(recompute)
	return cmd
}

func (r *runner) newGameDaysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gamedays",
		Short: "Scheduled game days",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <YYYY-MM-DD>...",
		Short: "Add enabled game days at kick-off on each date",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := r.a.GameDays.CreateMoreGameDays(cmd.Context(), args)
			if err != nil {
				return err
			}
			return r.print(cmd.OutOrStdout(), days, "%d game days added", len(days))
		},
	})
	return cmd
}
