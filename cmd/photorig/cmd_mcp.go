package main

import (
	"github.com/spf13/cobra"

	"photorig/mcp"
)

// newMCPCmd creates the "photorig mcp" subcommand.
func newMCPCmd(configPath *string) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP stdio server",
		Long:  "Serves the rig as MCP tools over stdio, for use by an agent.\nLogs go to stderr so stdout stays clean for the protocol.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession(*configPath)
			if err != nil {
				return err
			}
			if port != "" {
				if err := sess.Connect(port); err != nil {
					return err
				}
			}
			defer sess.Disconnect()
			return mcp.NewServer(sess, version).Run()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "serial port to connect at startup")
	return cmd
}
