package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	format string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "workflowctl",
		Short: "Inspect school meal workflows",
		Long: `workflowctl lists, describes, validates and exports the workflow
definitions compiled into the server.

Examples:
  # List every workflow
  workflowctl list

  # Show the states and transitions of one workflow as YAML
  workflowctl describe delivery_request --format yaml

  # Render a workflow for Graphviz
  workflowctl dot school_request | dot -Tsvg > school_request.svg

  # Check a draft definition file
  workflowctl validate draft.yaml
`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "Output format (text, json, yaml)")

	cmd.AddCommand(
		newListCmd(opts),
		newDescribeCmd(opts),
		newDotCmd(),
		newValidateCmd(),
		newTokenCmd(),
	)
	return cmd
}
