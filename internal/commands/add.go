package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/commands/options"
	"github.com/dennisdiepolder/workforce/internal/interaction"
	"github.com/spf13/cobra"
)

func addAdd(topLevel *cobra.Command) {
	co := &options.CallOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a service call.",
		Example: `
workforce add Acme Plumbing --phone "555 0100" --priority high
workforce add --name "Bolt Electric" --at "2024-03-14 09:00"
`,
		RunE: func(_ *cobra.Command, args []string) error {
			if co.Name == "" {
				co.Name = strings.Join(args, " ")
			}
			f, err := co.Fields(time.Local)
			if err != nil {
				return oo.HandleError(err)
			}

			return withLocal(func(ctx context.Context, a *app) error {
				frame, err := a.run(ctx, interaction.Create{Fields: f})
				if err != nil {
					return err
				}
				c, ok := a.repo.Get(frame.Selected)
				if !ok {
					return errors.New("created call not found")
				}
				if oo.JSON {
					return printer().JSON(c)
				}
				_, _ = fmt.Fprintf(out, "added %s\n", shortOrFull(oo.ShowID, c.ID))
				return nil
			})
		},
	}
	options.AddCallArgs(cmd, co)

	topLevel.AddCommand(cmd)
}
