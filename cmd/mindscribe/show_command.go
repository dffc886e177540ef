package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mindscribe/internal/api"
	"mindscribe/internal/queueaccess"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show details for a queued job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q", args[0])
			}

			return ctx.withQueue(func(access queueaccess.Access) error {
				job, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, job)
				}
				printJobDetails(cmd, *job)
				return nil
			})
		},
	}
}

func printJobDetails(cmd *cobra.Command, job api.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job #%d\n", job.ID)
	fmt.Fprintf(out, "  Title:          %s\n", jobTitle(job))
	fmt.Fprintf(out, "  Source:         %s\n", job.SourcePath)
	fmt.Fprintf(out, "  Status:         %s\n", formatStatusLabel(job.Status))
	fmt.Fprintf(out, "  Execution path: %s\n", formatExecutionPath(job.ExecutionPath))
	if stage := strings.TrimSpace(job.Progress.Stage); stage != "" {
		fmt.Fprintf(out, "  Stage:          %s\n", formatStatusLabel(stage))
	}
	fmt.Fprintf(out, "  Progress:       %d%%\n", job.Progress.OverallPercent)
	if message := strings.TrimSpace(job.Progress.Message); message != "" {
		fmt.Fprintf(out, "  Activity:       %s\n", message)
	}
	if remaining := job.Progress.EstimatedRemainingSeconds; remaining != nil {
		fmt.Fprintf(out, "  Remaining:      ~%s\n", formatRemaining(*remaining))
	}
	if job.DurationSeconds > 0 {
		fmt.Fprintf(out, "  Duration:       %.0fs\n", job.DurationSeconds)
	}
	if errMsg := strings.TrimSpace(job.ErrorMessage); errMsg != "" {
		fmt.Fprintf(out, "  Error:          %s\n", errMsg)
	}
	if created := formatDisplayTime(job.CreatedAt); created != "" {
		fmt.Fprintf(out, "  Created:        %s\n", created)
	}
	if updated := formatDisplayTime(job.UpdatedAt); updated != "" {
		fmt.Fprintf(out, "  Updated:        %s\n", updated)
	}
}
