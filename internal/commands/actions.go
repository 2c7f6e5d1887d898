package commands

import (
	"context"
	"fmt"

	"github.com/dennisdiepolder/workforce/internal/board"
	"github.com/dennisdiepolder/workforce/internal/interaction"
	"github.com/dennisdiepolder/workforce/internal/types"
	"github.com/spf13/cobra"
)

// report prints the call after a successful action
func report(verb string, c types.Call) error {
	if oo.JSON {
		return printer().JSON(c)
	}
	_, _ = fmt.Fprintf(out, "%s %s (%s, %s)\n", verb, shortOrFull(oo.ShowID, c.ID), c.DisplayName(), c.Status.Label())
	return nil
}

func addMove(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "move <id> <bucket>",
		Short: "Move a call to unscheduled, today, tomorrow, week or done.",
		Example: `
workforce move 456789ab tomorrow
`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			b, err := board.ParseBucket(args[1])
			if err != nil {
				return oo.HandleError(err)
			}
			return withLocal(func(ctx context.Context, a *app) error {
				c, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				if _, err := a.run(ctx, interaction.Move{ID: c.ID, Bucket: b}); err != nil {
					return err
				}
				c, _ = a.repo.Get(c.ID)
				return report("moved", c)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addComplete(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "complete <id>",
		Aliases: []string{"done"},
		Short:   "Mark a call completed.",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withLocal(func(ctx context.Context, a *app) error {
				c, err := a.onSelected(ctx, args[0], interaction.MarkComplete{})
				if err != nil {
					return err
				}
				return report("completed", c)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addAdvance(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a call to its next status: new, scheduled, in progress, completed, new.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withLocal(func(ctx context.Context, a *app) error {
				c, err := a.onSelected(ctx, args[0], interaction.AdvanceStatus{})
				if err != nil {
					return err
				}
				return report("advanced", c)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addStatus(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set the status of a call.",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			st, err := types.ParseStatus(args[1])
			if err != nil {
				return oo.HandleError(err)
			}
			return withLocal(func(ctx context.Context, a *app) error {
				c, err := a.onSelected(ctx, args[0], interaction.SetStatus{Status: st})
				if err != nil {
					return err
				}
				return report("updated", c)
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addDial(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "dial <id>",
		Short: "Print the tel: link for a call's phone number.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withLocal(func(ctx context.Context, a *app) error {
				if _, err := a.onSelected(ctx, args[0], interaction.Dial{}); err != nil {
					return err
				}
				if a.dial == "" {
					return errNoPhone
				}
				if oo.JSON {
					return printer().JSON(map[string]string{"uri": a.dial})
				}
				_, _ = fmt.Fprintln(out, a.dial)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
