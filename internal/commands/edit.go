package commands

import (
	"context"
	"errors"
	"time"

	"github.com/dennisdiepolder/workforce/internal/commands/options"
	"github.com/dennisdiepolder/workforce/internal/interaction"
	"github.com/spf13/cobra"
)

func addEdit(topLevel *cobra.Command) {
	co := &options.CallOptions{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a call. Only the flags given are changed.",
		Example: `
workforce edit 456789ab --phone "555 0199" --notes "gate code 4411"
workforce edit 456789ab --clear-schedule
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := co.Patch(cmd, time.Local)
			if err != nil {
				return oo.HandleError(err)
			}
			if p.IsEmpty() {
				return oo.HandleError(errors.New("nothing to change, pass at least one field flag"))
			}

			return withLocal(func(ctx context.Context, a *app) error {
				c, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				if _, err := a.onSelected(ctx, c.ID, interaction.SubmitEdit{ID: c.ID, Patch: p}); err != nil {
					return err
				}
				c, _ = a.repo.Get(c.ID)
				return report("updated", c)
			})
		},
	}
	options.AddCallArgs(cmd, co)
	options.AddClearScheduleArg(cmd, co)

	topLevel.AddCommand(cmd)
}
