package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newProbeCmd creates the "photorig probe" subcommand.
func newProbeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <port>",
		Short: "Check whether a rig controller answers on a port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession(*configPath)
			if err != nil {
				return err
			}
			if !sess.Probe(args[0]) {
				return fmt.Errorf("no rig controller on %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rig controller found on %s\n", args[0])
			return nil
		},
	}
}
