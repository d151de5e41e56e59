package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhimit04/job-new-agent/internal/browse"
	"github.com/abhimit04/job-new-agent/internal/model"
)

var (
	searchJobType  string
	searchLocation string
	searchJSON     bool
	searchBrowse   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run one aggregation pass from the terminal",
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchJobType, "job-type", "j", "", "job type to search for")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "location to search in")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the raw aggregation result as JSON")
	searchCmd.Flags().BoolVar(&searchBrowse, "browse", false, "open the interactive result browser")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	req := model.SearchRequest{JobType: searchJobType, Location: searchLocation}
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

	if searchBrowse {
		return browse.Run(req, out.Result, out.Summary)
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Message string                  `json:"message"`
			Result  model.AggregationResult `json:"result"`
			Summary string                  `json:"summary"`
		}{out.Message, out.Result, out.Summary})
	}

	fmt.Println(out.Message)
	for i, posting := range out.Result.Postings {
		fmt.Printf("%2d. %s — %s (%s)\n    %s | %s | %s\n",
			i+1, posting.Title, posting.Company, posting.Location,
			posting.PostedAt, posting.Salary, posting.Link)
	}
	for _, e := range out.Result.Errors {
		fmt.Fprintln(os.Stderr, "warning:", e)
	}
	return nil
}
