package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/viewkeeper/internal/config"
	"github.com/ericfisherdev/viewkeeper/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "viewkeeper",
		Short: "Relay incoming view-once WhatsApp media back to your own chat",
		Long: "viewkeeper links to a WhatsApp account as a companion device, shows a\n" +
			"pairing code on the terminal and on a small web page, and forwards every\n" +
			"incoming view-once photo, video or voice note to the account's own chat\n" +
			"as a regular message.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	root.AddCommand(newResetSessionCmd())
	return root
}

// setup loads configuration and installs the process-wide logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}
