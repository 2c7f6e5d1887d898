package commands

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dennisdiepolder/workforce/internal/commands/options"
	"github.com/dennisdiepolder/workforce/internal/interaction"
	"github.com/spf13/cobra"
)

func addDelete(topLevel *cobra.Command) {
	co := &options.ConfirmOptions{}

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a call after confirmation.",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withLocal(func(ctx context.Context, a *app) error {
				c, err := a.onSelected(ctx, args[0], interaction.RequestDelete{})
				if err != nil {
					return err
				}
				if a.confirm == nil {
					return fmt.Errorf("nothing to delete for %s", args[0])
				}

				if !co.Yes && !confirm(a.confirm.Prompt) {
					_, err := a.run(ctx, interaction.CancelDelete{})
					return err
				}
				if _, err := a.run(ctx, interaction.ConfirmDelete{}); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "deleted %s\n", shortOrFull(oo.ShowID, c.ID))
				return nil
			})
		},
	}
	options.AddConfirmArgs(cmd, co)

	topLevel.AddCommand(cmd)
}

func confirm(prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
