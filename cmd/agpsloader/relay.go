package main

import (
	"github.com/spf13/cobra"
)

func newRelayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Only relay sentences from receiver, skip AGPS fetch and upload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger := a.logger(cmd, cfg)

			port, err := a.deps.openPort(cfg.SerialPortConfig())
			if err != nil {
				return err
			}
			return relaySentences(cmd.Context(), cfg, port, cmd.OutOrStdout(), logger)
		},
	}
}
