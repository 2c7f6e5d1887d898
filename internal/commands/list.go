package commands

import (
	"context"
	"time"

	"github.com/dennisdiepolder/workforce/internal/alerts"
	"github.com/dennisdiepolder/workforce/internal/api"
	"github.com/dennisdiepolder/workforce/internal/commands/options"
	"github.com/dennisdiepolder/workforce/internal/interaction"
	"github.com/dennisdiepolder/workforce/internal/query"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/spf13/cobra"
)

func addList(topLevel *cobra.Command) {
	lo := &options.ListOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List service calls, newest first.",
		Example: `
workforce list
workforce list --filter scheduled -q acme
`,
		RunE: func(_ *cobra.Command, _ []string) error {
			filter, err := query.ParseFilter(lo.Filter)
			if err != nil {
				return oo.HandleError(err)
			}

			return withLocal(func(ctx context.Context, a *app) error {
				f, err := a.run(ctx, interaction.SetFilter{Filter: filter}, interaction.SetQuery{Query: lo.Query})
				if err != nil {
					return err
				}
				if oo.JSON {
					return printer().JSON(types.CallList{Calls: f.List, Total: a.repo.Len(), Empty: f.Empty})
				}
				printer().List(f.List, f.Empty)
				return nil
			})
		},
	}
	options.AddListArgs(cmd, lo)

	topLevel.AddCommand(cmd)
}

func addBoard(topLevel *cobra.Command) {
	lo := &options.ListOptions{}

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show calls grouped into Unscheduled, Today, Tomorrow, This Week and Completed.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withLocal(func(ctx context.Context, a *app) error {
				f, err := a.run(ctx, interaction.SetView{View: interaction.ViewBoard}, interaction.SetQuery{Query: lo.Query})
				if err != nil {
					return err
				}
				flags := alerts.CheckCallAlerts(a.repo.All(), time.Now())
				if oo.JSON {
					return printer().JSON(api.BoardResponse{Columns: f.Board, Counts: f.Counts, Alerts: flags, Empty: f.Empty})
				}
				printer().Board(f.Board, flags)
				return nil
			})
		},
	}
	options.AddQueryArgs(cmd, lo)

	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one service call.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withLocal(func(_ context.Context, a *app) error {
				c, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				if oo.JSON {
					return printer().JSON(c)
				}
				printer().Call(c)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
