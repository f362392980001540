package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPortsCmd creates the "photorig ports" subcommand.
func newPortsCmd(configPath *string) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List candidate serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := loadSession(*configPath)
			if err != nil {
				return err
			}
			ports, err := sess.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				if probe {
					mark := " "
					if sess.Probe(p) {
						mark = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, p)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "ping each port and mark responders with *")
	return cmd
}
