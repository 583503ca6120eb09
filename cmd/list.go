package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rigctl/internal/scenario"
)

var listTags []string

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <scenario-file-or-dir>",
	Short: "List the scenarios a file or directory defines",
	Long: `Loads scenario definitions and prints their names, tags and step
counts without executing anything. Useful to check what a --tag or
--scenario filter would select.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringSliceVar(&listTags, "tag", nil, "Show only scenarios carrying all given tags")
}

func runList(cmd *cobra.Command, args []string) error {
	loader := scenario.NewLoader(false)
	scenarios, err := loader.LoadScenarios(args[0])
	if err != nil {
		return err
	}

	filtered := loader.FilterScenarios(scenarios, scenario.Config{Tags: listTags})
	if len(filtered) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios matched.")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, s := range filtered {
		line := fmt.Sprintf("%s (%d steps", s.Name, len(s.Steps))
		if len(s.Cleanup) > 0 {
			line += fmt.Sprintf(", %d cleanup", len(s.Cleanup))
		}
		line += ")"
		if len(s.Tags) > 0 {
			line += "  [" + strings.Join(s.Tags, ", ") + "]"
		}
		fmt.Fprintln(out, line)
		if s.Description != "" {
			fmt.Fprintf(out, "    %s\n", s.Description)
		}
	}
	fmt.Fprintf(out, "\n%d scenario(s)\n", len(filtered))
	return nil
}
