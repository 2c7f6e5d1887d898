package options

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// OutputOptions
type OutputOptions struct {
	JSON    bool
	ShowID  bool
	Verbose bool
}

func AddOutputArgs(cmd *cobra.Command, o *OutputOptions) {
	cmd.PersistentFlags().BoolVar(&o.JSON, "json", false,
		"Output as JSON.")
	cmd.PersistentFlags().BoolVarP(&o.ShowID, "show-id", "k", false,
		"Show full call ids instead of their short suffix.")
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"Log debug output to stderr.")
}

func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}
