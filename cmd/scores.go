package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	reportview "github.com/bnema/anicord/internal/adapters/render/report"
	"github.com/bnema/anicord/internal/domain"
	"github.com/spf13/cobra"
)

type scoresOutput struct {
	Title        string
	CatalogScore int
	Members      int
	Report       domain.AggregateReport
}

func newScoresCmd(app *app) *cobra.Command {
	var guildID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scores <anime|manga> <name>",
		Short: "Show how a guild's linked members rated an anime or manga",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType, err := domain.ParseMediaType(args[0])
			if err != nil {
				return err
			}
			return runScores(cmd, app, guildID, mediaType, strings.Join(args[1:], " "), asJSON)
		},
	}

	cmd.Flags().StringVar(&guildID, "guild", "", "Discord guild ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("guild")

	return cmd
}

func runScores(cmd *cobra.Command, app *app, guildID string, mediaType domain.MediaType, name string, asJSON bool) error {
	s, err := app.openStores(cmd.Context())
	if err != nil {
		return err
	}
	rosters, err := app.rosterService(cmd.Context(), s)
	if err != nil {
		return err
	}

	roster := rosters.Roster(guildID)
	aggregator := app.aggregator()

	var media domain.Media
	var report domain.AggregateReport
	fetch := func(ctx context.Context, tracker reportview.Tracker) error {
		found, err := app.catalog.FindMedia(ctx, name, mediaType)
		if err != nil {
			return fmt.Errorf("find %s %q: %w", strings.ToLower(string(mediaType)), name, err)
		}
		tracker.MediaFound(found.Title.Preferred())
		aggregated, err := aggregator.AggregateWithProgress(ctx, roster, found.Ref(), tracker.MemberFetched)
		if err != nil {
			return fmt.Errorf("aggregate scores: %w", err)
		}
		media, report = found, aggregated
		return nil
	}

	if asJSON {
		if err := fetch(cmd.Context(), reportview.NopTracker{}); err != nil {
			return err
		}
	} else {
		if err := reportview.RunScoresFetch(cmd.Context(), cmd.ErrOrStderr(), name, len(roster), fetch); err != nil {
			return err
		}
	}

	output := scoresOutput{
		Title:        media.Title.Preferred(),
		CatalogScore: media.MeanScore,
		Members:      len(roster),
		Report:       report,
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	rendered, err := reportview.Render(report, reportview.RenderOptions{
		Title:         output.Title,
		CatalogScore:  output.CatalogScore,
		Members:       output.Members,
		DropThreshold: aggregator.Thresholds().For(mediaType),
	})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
