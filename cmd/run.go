package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rigctl/internal/scenario"
	"rigctl/internal/tui"
	"rigctl/pkg/logging"
)

var (
	runTimeout       time.Duration
	runLocateTimeout time.Duration
	runScenario      string
	runTags          []string
	runFailFast      bool
	runVerbose       bool
	runDebug         bool
	runConfigDir     string
	runReportPath    string
	runTUI           bool
)

// completeScenarioFlag provides shell completion for the scenario flag by
// loading the available scenario names.
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	loader := scenario.NewLoader(false)
	scenarios, err := loader.LoadScenarios(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveDefault
	}
	var names []string
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	return names, cobra.ShellCompDirectiveDefault
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <scenario-file-or-dir>",
	Short: "Execute integration scenarios",
	Long: `Loads scenario definitions from a YAML file or directory and
executes them sequentially, each against a fresh component registry and
configuration store.

Steps publish components, remove them again, perform bounded component
lookups with optional property filters, and write configuration records.
Fixtures can register components after a delay to exercise the race
between lookup and late registration.

Example usage:
  rigctl run scenarios/                 # Run every scenario in a directory
  rigctl run smoke.yaml --tag smoke     # Run scenarios tagged "smoke"
  rigctl run smoke.yaml --scenario=db   # Run a single scenario by name
  rigctl run smoke.yaml --fail-fast     # Stop on the first failure
  rigctl run smoke.yaml --tui           # Watch the run in the dashboard
  rigctl run smoke.yaml --report=out.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTimeout, "timeout", 10*time.Minute, "Overall run timeout")
	runCmd.Flags().DurationVar(&runLocateTimeout, "locate-timeout", 0, "Default bound for locate steps without their own timeout")
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Run a single scenario by name")
	runCmd.Flags().StringSliceVar(&runTags, "tag", nil, "Run only scenarios carrying all given tags")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop execution on first failed scenario")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Enable verbose per-step output")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")
	runCmd.Flags().StringVar(&runConfigDir, "config-dir", "", "Directory for persistent configuration records (default: in-memory)")
	runCmd.Flags().StringVar(&runReportPath, "report", "", "Path to save the YAML run report")
	runCmd.Flags().BoolVar(&runTUI, "tui", false, "Show the live dashboard while running")

	_ = runCmd.RegisterFlagCompletionFunc("scenario", completeScenarioFlag)
	runCmd.MarkFlagsMutuallyExclusive("tui", "verbose")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		if !runTUI {
			fmt.Println("\nReceived interrupt signal, stopping run gracefully...")
		}
		cancel()
	}()

	config := scenario.Config{
		Timeout:       runTimeout,
		Scenario:      runScenario,
		Tags:          runTags,
		LocateTimeout: runLocateTimeout,
		FailFast:      runFailFast,
		Verbose:       runVerbose,
		Debug:         runDebug,
		ScenarioPath:  args[0],
		ConfigDir:     runConfigDir,
		ReportPath:    runReportPath,
	}

	loader := scenario.NewLoader(runDebug)
	scenarios, err := loader.LoadScenarios(config.ScenarioPath)
	if err != nil {
		return err
	}

	var result *scenario.SuiteResult
	if runTUI {
		result, err = tui.Run(ctx, config, scenarios)
	} else {
		level := logging.LevelInfo
		if runDebug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, os.Stderr)

		runner := scenario.NewRunner(loader, scenario.NewConsoleReporter(runVerbose), runDebug)
		result, err = runner.Run(ctx, config, scenarios)
	}
	if err != nil {
		return err
	}

	if config.ReportPath != "" {
		if err := scenario.WriteReport(config.ReportPath, *result); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}

	if result.FailedScenarios > 0 || result.ErrorScenarios > 0 {
		return fmt.Errorf("%d of %d scenarios did not pass",
			result.FailedScenarios+result.ErrorScenarios, result.TotalScenarios)
	}
	return nil
}
