package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/filmybuddy/internal/metadata"
	"github.com/justyntemme/filmybuddy/internal/models"
)

const resolveTimeout = 15 * time.Second

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var (
		q    metadata.MediaQuery
		kind string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Look a title up on TMDb and print the best match",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			q.Kind = models.MediaKind(kind)

			resolveCtx, cancel := context.WithTimeout(cmd.Context(), resolveTimeout)
			defer cancel()

			match, err := a.tracker.Resolve(resolveCtx, q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !match.Found {
				fmt.Fprintln(out, "No match")
				return nil
			}
			rows := [][]string{
				{"Title", match.Title},
				{"Year", match.Year},
				{"Kind", string(match.Kind)},
				{"Language", match.Language},
				{"Rating", fmt.Sprintf("%.1f", match.Rating)},
				{"TMDb ID", fmt.Sprintf("%s/%d", match.ProviderKind, match.ID)},
				{"Poster", match.PosterURL},
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&q.Title, "title", "", "Title to search for")
	flags.StringVar(&kind, "kind", "", "Movie, Show, Documentary, Anime or Other")
	flags.StringVar(&q.Year, "year", "", "Release year (4 digits)")
	flags.StringVar(&q.Language, "language", "", "Original language code")
	return cmd
}
