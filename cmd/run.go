package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/orchestrator"
)

var (
	runWebsite string
	runCompany string
	runOwner   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a competitive analysis for one company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch, err := initOrchestrator(st)
		if err != nil {
			return err
		}

		job, err := st.CreateJob(ctx, runOwner, runWebsite, runCompany)
		if err != nil {
			return eris.Wrap(err, "create job")
		}
		fmt.Printf("Analysis started: %s\n", job.ID)

		runErr := make(chan error, 1)
		go func() {
			runErr <- orch.Run(ctx, job.ID)
		}()

		poller := orchestrator.NewPoller(st, orchestrator.WithOnUpdate(func(j *model.AnalysisJob) {
			fmt.Printf("  status: %s\n", j.Status)
		}))
		result, err := poller.Wait(ctx, job.ID)
		if err != nil {
			return eris.Wrap(err, "poll job")
		}
		if err := <-runErr; err != nil {
			zap.L().Debug("orchestrator run error", zap.Error(err))
		}

		if result.Job.Status == model.JobStatusFailed {
			return eris.Errorf("analysis failed: %s", result.Job.Error)
		}

		fmt.Printf("\nAnalysis completed (confidence: %s)\n", result.Confidence)
		fmt.Printf("  competitors: %d (%d with insights)\n", result.Counts.Competitors, result.Counts.WithInsights)
		fmt.Printf("  differentiation angles: %d\n", result.Counts.Angles)
		fmt.Printf("  content artifacts: %d\n", result.Counts.Contents)
		fmt.Printf("\nView artifacts with: competeai content %s\n", job.ID)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runWebsite, "website", "", "subject website URL (required)")
	runCmd.Flags().StringVar(&runCompany, "company", "", "subject company name (required)")
	runCmd.Flags().StringVar(&runOwner, "owner", "cli", "owner identifier")
	_ = runCmd.MarkFlagRequired("website")
	_ = runCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(runCmd)
}
