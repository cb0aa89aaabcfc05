package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapledger/snapledger/internal/model"
)

func classifyCmd() *cobra.Command {
	var appID string

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify one snapshot of captured screen text",
		Long: `Reads snapshot lines from a file (or stdin when no file is given) and runs
them through the classification pipeline. Prints the detection as JSON, or
nothing when the snapshot is not a completed transaction.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readSnapshotLines(args)
			if err != nil {
				return err
			}

			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.cleanup()

			snap := model.Snapshot{AppID: appID, Lines: lines}
			result := a.engine.Classify(cmd.Context(), snap)
			if result == nil {
				cmd.Println("no transaction detected")
				return nil
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to render result: %w", err)
			}
			cmd.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "source application identifier (required)")
	_ = cmd.MarkFlagRequired("app")

	return cmd
}

func readSnapshotLines(args []string) ([]string, error) {
	in := os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot file: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return lines, nil
}
