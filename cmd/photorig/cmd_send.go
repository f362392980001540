package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"photorig/proto"
)

// newSendCmd creates the "photorig send" subcommand.
func newSendCmd(configPath *string) *cobra.Command {
	var port string
	var data string

	cmd := &cobra.Command{
		Use:   "send <kind>",
		Short: "Send one command to the device and print its response",
		Long:  "Connects to the serial port, sends a single command and prints\nthe device response as JSON. The payload is given with --data.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := proto.ParseKind(args[0])
			if err != nil {
				return err
			}

			var payload map[string]any
			if data != "" {
				if err := json.Unmarshal([]byte(data), &payload); err != nil {
					return fmt.Errorf("parsing --data: %w", err)
				}
			}

			sess, _, err := loadSession(*configPath)
			if err != nil {
				return err
			}
			if err := sess.Connect(port); err != nil {
				return err
			}
			defer sess.Disconnect()

			resp, err := sess.Send(kind, payload)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "serial port of the device")
	cmd.Flags().StringVarP(&data, "data", "d", "", "command payload as a JSON object")
	cmd.MarkFlagRequired("port")
	return cmd
}
