package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage the hot-reloadable rule configuration",
	}

	cmd.AddCommand(rulesUpdateCmd())
	cmd.AddCommand(rulesShowCmd())

	return cmd
}

func rulesUpdateCmd() *cobra.Command {
	var consumerVersion int

	cmd := &cobra.Command{
		Use:   "update <payload.json>",
		Short: "Validate and activate a new rule payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}

			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.cleanup()

			if consumerVersion == 0 {
				consumerVersion = a.cfg.ConsumerVersion
			}

			outcome := a.repo.Update(cmd.Context(), payload, consumerVersion)
			if err := outcome.Err(); err != nil {
				return err
			}

			stats := a.repo.LastBuildStats()
			cmd.Printf("activated rule set %s (%d apps, %d rules, %d patterns dropped)\n",
				outcome.Version, stats.Apps, stats.Rules, stats.DroppedPatterns)
			return nil
		},
	}

	cmd.Flags().IntVar(&consumerVersion, "consumer-version", 0, "consumer version to gate against (default: from config)")

	return cmd
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active rule set and stored payload history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.cleanup()

			active := a.repo.Active()
			if active == nil {
				cmd.Println("no rule set loaded")
				return nil
			}

			stats := a.repo.LastBuildStats()
			cmd.Printf("active version: %s\n", active.Version)
			cmd.Printf("min consumer version: %d\n", active.MinConsumerVersion)
			cmd.Printf("rules: %d across %d apps (%d patterns dropped at load)\n",
				stats.Rules, stats.Apps, stats.DroppedPatterns)
			for _, app := range active.Apps() {
				cmd.Printf("  %s: %d rules\n", app, len(active.RulesFor(app)))
			}

			history, err := a.store.PayloadHistory(cmd.Context(), 10)
			if err != nil {
				return err
			}
			if len(history) > 0 {
				cmd.Println("stored payloads (newest first):")
				for _, rec := range history {
					cmd.Printf("  %s accepted %s\n", rec.Version, rec.AcceptedAt.Format("2006-01-02 15:04:05"))
				}
			}
			return nil
		},
	}
}
