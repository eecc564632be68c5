// Package main provides the VulnScout CLI: one-shot queries against a
// running server and the two measurement harnesses.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vulnscout/vulnscout/internal/advisor"
	"github.com/vulnscout/vulnscout/internal/client"
	"github.com/vulnscout/vulnscout/internal/completion"
	"github.com/vulnscout/vulnscout/internal/config"
	"github.com/vulnscout/vulnscout/internal/evaluation"
	"github.com/vulnscout/vulnscout/internal/loadtest"
	"github.com/vulnscout/vulnscout/internal/pipeline"
	"github.com/vulnscout/vulnscout/internal/pkg/logger"
	"github.com/vulnscout/vulnscout/internal/report"
	"github.com/vulnscout/vulnscout/internal/shodan"
	"github.com/vulnscout/vulnscout/internal/translate"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// defaultQueries is the fixed query set used by both harnesses when no
// query file is supplied.
var defaultQueries = []string{
	"Find vulnerable Apache servers in Germany",
	"Show me exposed MongoDB databases in the US",
	"Find IoT devices with default passwords",
	"Search for vulnerable WordPress sites in Canada",
	"Find exposed Jenkins servers",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "vulnscout",
		Short: "VulnScout - natural-language device search with remediation guidance",
		Long: `VulnScout translates natural-language security questions into
device-index search queries and proposes remediation steps for the
vulnerabilities it finds.

Run 'vulnscout query' against a running server, or 'vulnscout eval' /
'vulnscout loadtest' to measure the pipeline directly.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		queryCmd(),
		evalCmd(),
		loadtestCmd(),
		reportCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Run one question through a running VulnScout server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL, _ := cmd.Flags().GetString("server")
			limit, _ := cmd.Flags().GetInt("limit")

			c := client.New(client.Config{BaseURL: serverURL})
			guidance, err := c.Query(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			fmt.Println(guidance)
			return nil
		},
	}

	cmd.Flags().String("server", "http://localhost:8080", "server base URL")
	cmd.Flags().Int("limit", 0, "result count limit (0 = server default)")

	return cmd
}

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Run the sequential per-stage timing harness",
		Long: `Run every query in the query set for the configured number of
iterations, strictly sequentially, timing each pipeline stage
separately. Raw samples go to a timestamped CSV and the statistical
summary to a timestamped JSON file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(cmd)
			if err != nil {
				return err
			}

			iterations, _ := cmd.Flags().GetInt("iterations")
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Evaluation.Iterations
			}
			outputDir, _ := cmd.Flags().GetString("output")
			if !cmd.Flags().Changed("output") {
				outputDir = cfg.Evaluation.OutputDir
			}

			queries, err := loadQueries(cmd)
			if err != nil {
				return err
			}

			orch, err := buildPipeline(cfg, log)
			if err != nil {
				return err
			}

			ev := evaluation.New(orch, cfg.Pipeline.DefaultLimit, cfg.Evaluation.Cooldown, log)

			fmt.Printf("Starting evaluation: %d queries x %d iterations...\n", len(queries), iterations)
			start := time.Now()

			samples, err := ev.Run(cmd.Context(), queries, iterations)
			if err != nil {
				return err
			}

			analysis := evaluation.Analyze(samples)
			csvPath, jsonPath, err := evaluation.Save(outputDir, samples, analysis)
			if err != nil {
				return err
			}

			fmt.Printf("\nEvaluation finished in %s (%d samples)\n", time.Since(start).Round(time.Second), analysis.Samples)
			fmt.Printf("Average Total Response Time: %.2f seconds\n", analysis.Total.Mean)
			fmt.Printf("Median Response Time: %.2f seconds\n", analysis.Total.Median)
			fmt.Printf("Standard Deviation: %.2f seconds\n", analysis.Total.StdDev)
			fmt.Println("\nComponent Breakdown:")
			fmt.Printf("  Translation: %.2f seconds\n", analysis.Stages.Translate)
			fmt.Printf("  Search: %.2f seconds\n", analysis.Stages.Search)
			fmt.Printf("  Remediation: %.2f seconds\n", analysis.Stages.Advise)
			fmt.Printf("\nResults saved to %s and %s\n", csvPath, jsonPath)

			return nil
		},
	}

	cmd.Flags().Int("iterations", 10, "iterations per query")
	cmd.Flags().String("output", "", "output directory (default from config)")
	cmd.Flags().String("queries", "", "file with one query per line")

	return cmd
}

func loadtestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Run the concurrent load harness",
		Long: `Launch the configured number of concurrent pipeline invocations,
cycling through the query set to fill every user slot, then aggregate
success rate and latency statistics over the run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(cmd)
			if err != nil {
				return err
			}

			users, _ := cmd.Flags().GetInt("users")
			if !cmd.Flags().Changed("users") {
				users = cfg.LoadTest.Users
			}
			outputDir, _ := cmd.Flags().GetString("output")
			if !cmd.Flags().Changed("output") {
				outputDir = cfg.LoadTest.OutputDir
			}

			queries, err := loadQueries(cmd)
			if err != nil {
				return err
			}

			orch, err := buildPipeline(cfg, log)
			if err != nil {
				return err
			}

			tester := loadtest.New(orch, cfg.Pipeline.DefaultLimit, log)

			fmt.Printf("Starting load test: %d concurrent users...\n", users)
			results := tester.Run(cmd.Context(), queries, users)
			analysis := loadtest.Analyze(results)

			csvPath, jsonPath, err := loadtest.Save(outputDir, results, analysis)
			if err != nil {
				return err
			}

			printLoadAnalysis(analysis)
			fmt.Printf("\nResults saved to %s and %s\n", csvPath, jsonPath)

			return nil
		},
	}

	cmd.Flags().Int("users", 10, "number of concurrent users")
	cmd.Flags().String("output", "", "output directory (default from config)")
	cmd.Flags().String("queries", "", "file with one query per line")

	return cmd
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the most recent load test run",
		Long: `Find the newest persisted load test results CSV, re-run the
analysis over it, and print the summary. Useful for reviewing a run
without re-executing it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfigAndLogger(cmd)
			if err != nil {
				return err
			}

			outputDir, _ := cmd.Flags().GetString("output")
			if !cmd.Flags().Changed("output") {
				outputDir = cfg.LoadTest.OutputDir
			}

			path, err := report.Latest(outputDir, "load_test_results", "csv")
			if err != nil {
				return err
			}

			results, err := loadtest.Load(path)
			if err != nil {
				return err
			}

			fmt.Printf("Analyzing %s (%d results)\n", path, len(results))
			printLoadAnalysis(loadtest.Analyze(results))

			return nil
		},
	}

	cmd.Flags().String("output", "", "results directory (default from config)")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vulnscout %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}

func loadConfigAndLogger(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := cfg.Log.Level
	if verbose {
		logLevel = "debug"
	}
	return cfg, logger.New(logLevel, cfg.Log.Format), nil
}

// buildPipeline constructs the orchestrator with real collaborator
// clients. The harnesses call the pipeline directly rather than going
// through a server.
func buildPipeline(cfg *config.Config, log *logger.Logger) (*pipeline.Orchestrator, error) {
	completionClient, err := completion.NewHTTPClient(cfg.Completion)
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	searchClient, err := shodan.NewClient(cfg.Shodan)
	if err != nil {
		return nil, fmt.Errorf("creating shodan client: %w", err)
	}

	return pipeline.New(
		translate.New(completionClient, log),
		searchClient,
		advisor.New(completionClient, log),
		log,
	), nil
}

// loadQueries reads the query file if given, falling back to the
// default query set.
func loadQueries(cmd *cobra.Command) ([]string, error) {
	path, _ := cmd.Flags().GetString("queries")
	if path == "" {
		return defaultQueries, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}

	var queries []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			queries = append(queries, line)
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("query file %s contains no queries", path)
	}
	return queries, nil
}

func printLoadAnalysis(a loadtest.Analysis) {
	fmt.Println("\n=== Load Test Analysis ===")
	fmt.Printf("Total Queries: %d\n", a.TotalQueries)
	fmt.Printf("Successful Queries: %d\n", a.SuccessfulQueries)
	fmt.Printf("Failed Queries: %d\n", a.FailedQueries)
	fmt.Printf("Success Rate: %.2f%%\n", a.SuccessRate)
	fmt.Println("\nResponse Times (seconds):")
	fmt.Printf("  Mean: %.2f\n", a.ResponseTimes.Mean)
	fmt.Printf("  Median: %.2f\n", a.ResponseTimes.Median)
	fmt.Printf("  95th Percentile: %.2f\n", a.ResponseTimes.Percentile95)
	fmt.Printf("  Standard Deviation: %.2f\n", a.ResponseTimes.StdDev)
	fmt.Printf("  Min: %.2f\n", a.ResponseTimes.Min)
	fmt.Printf("  Max: %.2f\n", a.ResponseTimes.Max)
}
