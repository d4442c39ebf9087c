package main

import (
	"context"
	"errors"
	"io"

	"github.com/aldas/go-agps-client"
	"github.com/aldas/go-agps-client/internal/config"
	"github.com/aldas/go-agps-client/serialport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch AGPS data, write it to receiver and relay fixes (default command)",
		Args:  cobra.NoArgs,
		RunE:  a.runE,
	}
}

func (a *app) runE(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger := a.logger(cmd, cfg)
	fetcher := a.deps.newFetcher(cfg.ClientConfig(), logger)

	return runLoader(cmd.Context(), cfg, fetcher, a.deps.openPort, cmd.OutOrStdout(), logger)
}

// runLoader fetches AGPS payload, writes it to serial device and relays sentences from device until context is done.
// Serial device is closed on every path after it has been opened.
func runLoader(
	ctx context.Context,
	cfg config.Config,
	fetcher agps.PayloadFetcher,
	openPort func(cfg serialport.Config) (agps.Port, error),
	out io.Writer,
	logger zerolog.Logger,
) error {
	payload, err := fetcher.FetchPayload(ctx, cfg.AGPSRequest())
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("Exiting, AGPS fetch interrupted")
		return nil
	}
	if err != nil {
		return err
	}

	port, err := openPort(cfg.SerialPortConfig())
	if err != nil {
		return err
	}
	if err := agps.NewUplink(port, logger).Upload(payload); err != nil {
		_ = port.Close()
		return err
	}
	return relaySentences(ctx, cfg, port, out, logger)
}

func relaySentences(ctx context.Context, cfg config.Config, port agps.Port, out io.Writer, logger zerolog.Logger) error {
	relay := agps.NewSentenceRelay(port, out, cfg.RelayConfig(), logger)
	err := relay.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info().Msg("Exiting, serial device released")
		return nil
	case errors.Is(err, io.EOF):
		logger.Info().Msg("Serial device reached end of data")
		return nil
	}
	return err
}
