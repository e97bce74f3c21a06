// File: cmd/cases.go
package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/sauce-e2e/internal/data"
)

// newCasesCmd creates the `cases` command, which lists the data-driven login cases.
func newCasesCmd() *cobra.Command {
	var outcome string
	var tags []string
	var asJSON bool

	casesCmd := &cobra.Command{
		Use:   "cases",
		Short: "List the login test cases in the data set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			provider, err := data.FromDir(cfg.Suite.DataDir)
			if err != nil {
				return fmt.Errorf("failed to load test data: %w", err)
			}
			return runCases(cmd.OutOrStdout(), provider, outcome, tags, asJSON)
		},
	}

	casesCmd.Flags().StringVar(&outcome, "outcome", "", "only cases with this outcome (success, locked, invalid, missing-username, missing-password)")
	casesCmd.Flags().StringSliceVar(&tags, "tag", nil, "only cases carrying any of these tags (repeatable)")
	casesCmd.Flags().BoolVar(&asJSON, "json", false, "print the cases as JSON")
	return casesCmd
}

// runCases contains the core, testable logic of the cases command.
func runCases(out io.Writer, provider *data.Provider, outcome string, tags []string, asJSON bool) error {
	filter := data.Filter{TagsInclude: tags}
	if outcome != "" {
		o, err := data.ParseOutcome(outcome)
		if err != nil {
			return err
		}
		filter.Outcome = o
	}
	cases := provider.List(filter)

	if asJSON {
		raw, err := json.MarshalIndent(cases, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize cases to JSON: %w", err)
		}
		_, err = fmt.Fprintln(out, string(raw))
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tOUTCOME\tUSERNAME\tTAGS\tDESCRIPTION")
	for _, c := range cases {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Outcome, c.Creds.Username, strings.Join(c.Tags, ","), c.Description)
	}
	return tw.Flush()
}
