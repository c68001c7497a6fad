package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/BennettSmith/insurance-intake-api/internal/draft"
	"github.com/BennettSmith/insurance-intake-api/internal/tui"
)

func newWizardCmd(opts *rootOptions) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "wizard [application-id]",
		Short: "Fill in an application interactively",
		Long: `Fill in an application interactively.

Without an id a new application is started. With an id the stored
application is resumed; if it has no data yet the local draft is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := opts.newClient()
			if err != nil {
				return err
			}
			backend, err := draft.Open(cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			var id string
			if len(args) == 1 {
				id = args[0]
			}
			app := tui.NewApp(c, draft.NewStore(backend, scope), tui.Options{ApplicationID: id})
			if _, err := tea.NewProgram(app, tea.WithContext(cmd.Context())).Run(); err != nil {
				return err
			}
			if err := app.Err(); err != nil {
				return err
			}
			if app.Submitted() {
				fmt.Fprintf(cmd.OutOrStdout(), "Quote: %.2f\n", app.Quote())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "draft", draft.DefaultScope, "name of the local draft to use")
	return cmd
}
