package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the media log",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.tracker.Entries(cmd.Context(), search)
			if err != nil {
				return fmt.Errorf("read entries: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Nothing logged yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.User,
					e.Title,
					string(e.Kind),
					string(e.Status),
					e.Year,
					e.Language,
					e.Note,
					e.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			headers := []string{"User", "Title", "Kind", "Status", "Year", "Language", "Note", "Logged"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show entries whose title contains this text")
	return cmd
}
