package main

import (
	"github.com/spf13/cobra"

	"photorig/config"
	"photorig/session"
	"photorig/transport"
)

const version = "0.3.0"

// newRootCmd creates the root photorig command with all subcommands attached.
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "photorig",
		Short:         "Photo rig serial controller",
		Long:          "photorig talks to a rig microcontroller over a serial line.\nIt exposes the device over HTTP, a status websocket and MCP.",
		Version:       "photorig " + version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(&configPath),
		newMCPCmd(&configPath),
		newPortsCmd(&configPath),
		newProbeCmd(&configPath),
		newPingCmd(&configPath),
		newSendCmd(&configPath),
	)

	return cmd
}

// loadSession builds a serial-backed session from the config file, shared
// by every subcommand.
func loadSession(configPath string) (*session.Controller, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, config.Config{}, err
	}
	tr := &transport.Serial{
		BaudRate:    cfg.BaudRate,
		PollQuantum: cfg.PollQuantum(),
	}
	return session.New(tr, cfg), cfg, nil
}
