package commands

import (
	"context"
	"io"
	"os"

	"github.com/dennisdiepolder/workforce/internal/commands/options"
	"github.com/dennisdiepolder/workforce/internal/printers"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	oo     = &options.OutputOptions{}
	logger = zerolog.Nop()

	out io.Writer = color.Output
	in  io.Reader = os.Stdin
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workforce",
		Short: "Track and dispatch customer service calls.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := zerolog.WarnLevel
			if oo.Verbose {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
	options.AddOutputArgs(cmd, oo)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addAdd(topLevel)
	addList(topLevel)
	addBoard(topLevel)
	addShow(topLevel)
	addMove(topLevel)
	addComplete(topLevel)
	addAdvance(topLevel)
	addStatus(topLevel)
	addEdit(topLevel)
	addDelete(topLevel)
	addDial(topLevel)
	addWatch(topLevel)
	addVersion(topLevel)
}

func printer() *printers.PrettyPrint {
	return &printers.PrettyPrint{ShowID: oo.ShowID, Out: out}
}

// withLocal opens the local collection, runs fn and flushes writes to disk
func withLocal(fn func(ctx context.Context, a *app) error) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := openLocal(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return oo.HandleError(fn(ctx, a))
}
