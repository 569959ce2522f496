package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func batchCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Clinic batch jobs",
	}

	var date string
	weeklyCmd := &cobra.Command{
		Use:   "weekly",
		Short: "Generate the sessions and default attendances of one week",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ref := a.policy.Today()
			if date != "" {
				ref, err = time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()

			result, err := a.svc.ClinicBatch.RunWeekly(ctx, ref, "cli")
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	weeklyCmd.Flags().StringVar(&date, "date", "", "any date in the target week (YYYY-MM-DD), defaults to today in the clinic timezone")
	cmd.AddCommand(weeklyCmd)

	return cmd
}
