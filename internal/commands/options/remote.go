package options

import (
	"github.com/spf13/cobra"
)

// RemoteOptions identify the server and the account to sign in with
type RemoteOptions struct {
	Server   string
	Email    string
	Password string
	Token    string
}

func AddRemoteArgs(cmd *cobra.Command, o *RemoteOptions) {
	cmd.Flags().StringVar(&o.Server, "server", "",
		"Server URL, defaults to the server key of the config file.")
	cmd.Flags().StringVar(&o.Email, "email", "", "Account email.")
	cmd.Flags().StringVar(&o.Password, "password", "", "Account password.")
	cmd.Flags().StringVar(&o.Token, "token", "",
		"Pre-issued access token, used instead of email and password.")
}
