package options

import (
	"github.com/spf13/cobra"
)

// ListOptions
type ListOptions struct {
	Filter string
	Query  string
}

func AddListArgs(cmd *cobra.Command, o *ListOptions) {
	cmd.Flags().StringVarP(&o.Filter, "filter", "f", "all",
		"Only show calls with this status, or all.")
	AddQueryArgs(cmd, o)
}

func AddQueryArgs(cmd *cobra.Command, o *ListOptions) {
	cmd.Flags().StringVarP(&o.Query, "query", "q", "",
		"Case-insensitive search over name, phone, address and notes.")
}
