package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/viewkeeper/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/viewkeeper/internal/logging"
)

func newResetSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-session",
		Short: "Delete the stored session so the next start shows a new pairing code",
		Long: "reset-session removes the linked-device credentials from the database.\n" +
			"Use it after the phone logged this device out. The relay log is kept.\n" +
			"Stop any running viewkeeper process first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(); closeErr != nil {
					logger.Error("error closing database", "error", closeErr)
				}
			}()

			sessions, err := sqliteadapter.NewSessionRepo(ctx, db, logging.NewWALogger(logger, "store"))
			if err != nil {
				return err
			}

			linked, err := sessions.Linked(ctx)
			if err != nil {
				return err
			}
			if !linked {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored session, nothing to reset.")
				return nil
			}

			if err := sessions.Clear(ctx); err != nil {
				return err
			}
			logger.Info("session cleared", "db_path", cfg.DBPath)
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared. Start viewkeeper again and scan the new pairing code.")
			return nil
		},
	}
}
