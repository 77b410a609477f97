package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"vid2manga/internal/backend"
	"vid2manga/internal/notifications"
	"vid2manga/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the backend, notifications, and local directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			client, err := backend.NewFromConfig(cfg, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("vid2manga doctor", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg, client)
			for _, result := range results {
				kind := statusOK
				switch {
				case result.Skipped:
					kind = statusInfo
				case !result.Passed:
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out, renderDetailLine("Push notifications", yesNo(notifications.Enabled(notifications.NewService(cfg)))))

			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
