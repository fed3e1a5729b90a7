// Package cli holds the footyctl commands. They call the services directly,
// so scheduled jobs can run without the API server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/padraicbc/footy/app"
)

// Opener builds the services for one command run. The returned func
// releases whatever the services hold open.
type Opener func(ctx context.Context) (*app.App, func(), error)

type runner struct {
	open   Opener
	output string
	a      *app.App
	close  func()
}

// NewRootCmd creates the footyctl root command.
func NewRootCmd(open Opener) *cobra.Command {
	r := &runner{open: open, output: "text"}

	rootCmd := &cobra.Command{
		Use:   "footyctl",
		Short: "Operate the footy club database",
		Long: `footyctl runs the scheduled and administrative jobs of the footy API:
sending game invitations, rebuilding yearly records and adding game days.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, closeFn, err := r.open(cmd.Context())
			if err != nil {
				return err
			}
			r.a, r.close = a, closeFn
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if r.close != nil {
				r.close()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&r.output, "output", "o", r.output, "Output format: text, json")

	rootCmd.AddCommand(r.newInvitationsCmd())
	rootCmd.AddCommand(r.newRecordsCmd())
	rootCmd.AddCommand(r.newGameDaysCmd())

	return rootCmd
}

// print writes v as JSON, or text via format when the output is text.
func (r *runner) print(w io.Writer, v any, format string, args ...any) error {
	if r.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(w, format+"\n", args...)
	return err
}
