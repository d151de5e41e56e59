package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhimit04/job-new-agent/internal/delivery"
	"github.com/abhimit04/job-new-agent/internal/model"
)

var (
	reportJobType  string
	reportLocation string
	reportEmail    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Aggregate, render, and deliver a market report",
	Long:  "Run one aggregation pass, render the report, and email it to the given recipient. Without SMTP configured the report text is logged instead.",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportJobType, "job-type", "j", "", "job type to search for")
	reportCmd.Flags().StringVarP(&reportLocation, "location", "l", "", "location to search in")
	reportCmd.Flags().StringVarP(&reportEmail, "email", "e", "", "recipient email address (required)")
	_ = reportCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	recipient, err := delivery.ValidateAddress(reportEmail)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	req := model.SearchRequest{JobType: reportJobType, Location: reportLocation}
	if req.JobType == "" {
		req.JobType = cfg.Defaults.JobType
	}
	if req.Location == "" {
		req.Location = cfg.Defaults.Location
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := buildPipeline(ctx, cfg, logger)
	out, err := p.Aggregate(ctx, req)
	if err != nil {
		return err
	}

	if len(out.Result.Postings) == 0 {
		// Nothing to send; not an error.
		fmt.Println(out.Message)
		return nil
	}

	rendered, err := buildRenderer(cfg).Render(req, out.Summary, out.Result)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	d := setupDeliverer(cfg, logger)
	if d == nil {
		d = delivery.NewLogDeliverer(logger)
	}

	subject := fmt.Sprintf("Job Market Report: %s in %s", req.JobType, req.Location)
	if err := d.Deliver(ctx, recipient, subject, rendered); err != nil {
		return err
	}

	fmt.Printf("Report with %d postings delivered to %s\n", len(out.Result.Postings), recipient)
	return nil
}
