package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPingCmd creates the "photorig ping" subcommand.
func newPingCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping <port>",
		Short: "Connect to a port and exchange one ping",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession(*configPath)
			if err != nil {
				return err
			}
			if err := sess.Connect(args[0]); err != nil {
				return err
			}
			defer sess.Disconnect()

			resp, err := sess.Ping()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (success=%t)\n", resp.Message, resp.Success)
			return nil
		},
		Args: cobra.ExactArgs(1),
	}
}
