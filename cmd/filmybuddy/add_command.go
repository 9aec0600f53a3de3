package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justyntemme/filmybuddy/internal/tracker"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var in tracker.EntryInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append an entry to the media log",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entry, err := a.tracker.AddEntry(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %q (%s, %s) for %s\n", entry.Title, entry.Kind, entry.Status, entry.User)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.User, "user", "", "Who watched it")
	flags.StringVar(&in.Title, "title", "", "Movie or show title")
	flags.StringVar(&in.Kind, "kind", "", "Movie, Show, Documentary, Anime or Other (default Movie)")
	flags.StringVar(&in.Status, "status", "", "Watched, Watching, Plan to Watch or Dropped (default Watched)")
	flags.StringVar(&in.Year, "year", "", "Release year (4 digits)")
	flags.StringVar(&in.Language, "language", "", "Original language code (e.g. en, kor)")
	flags.StringVar(&in.Note, "note", "", "Free-form note")
	return cmd
}
