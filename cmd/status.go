package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/orchestrator"
)

var statusWait bool

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of an analysis job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		jobID := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if statusWait {
			poller := orchestrator.NewPoller(st, orchestrator.WithOnUpdate(func(j *model.AnalysisJob) {
				fmt.Printf("  status: %s\n", j.Status)
			}))
			result, err := poller.Wait(ctx, jobID)
			if err != nil {
				return eris.Wrap(err, "poll job")
			}
			printJob(result.Job)
			if result.Counts != nil {
				printCounts(result)
			}
			return nil
		}

		job, err := st.GetJob(ctx, jobID)
		if err != nil {
			return eris.Wrap(err, "get job")
		}
		printJob(job)

		if job.Status == model.JobStatusCompleted {
			counts, err := st.GetJobCounts(ctx, jobID)
			if err != nil {
				return eris.Wrap(err, "get job counts")
			}
			printCounts(&orchestrator.PollResult{
				Job:        job,
				Counts:     counts,
				Confidence: model.ComputeConfidence(counts.Competitors, counts.WithInsights, counts.Angles),
			})
		}
		return nil
	},
}

func printJob(job *model.AnalysisJob) {
	fmt.Printf("Job:      %s\n", job.ID)
	fmt.Printf("Company:  %s (%s)\n", job.CompanyName, job.Website)
	fmt.Printf("Status:   %s\n", job.Status)
	if job.Error != "" {
		fmt.Printf("Error:    %s\n", job.Error)
	}
	fmt.Printf("Created:  %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:  %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printCounts(result *orchestrator.PollResult) {
	fmt.Printf("\nConfidence: %s\n", result.Confidence)
	fmt.Printf("  competitors: %d (%d with insights)\n", result.Counts.Competitors, result.Counts.WithInsights)
	fmt.Printf("  differentiation angles: %d\n", result.Counts.Angles)
	fmt.Printf("  content artifacts: %d\n", result.Counts.Contents)
}

func init() {
	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "poll until the job reaches a terminal state")
	rootCmd.AddCommand(statusCmd)
}
