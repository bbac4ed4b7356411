package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"merenda/internal/workflow"
	"merenda/internal/workflow/catalog"
)

type stateView struct {
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label" yaml:"label"`
	Kind     string `json:"kind" yaml:"kind"`
	Terminal bool   `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

type transitionView struct {
	Event   string   `json:"event" yaml:"event"`
	Sources []string `json:"sources" yaml:"sources"`
	Target  string   `json:"target" yaml:"target"`
	Silent  bool     `json:"silent,omitempty" yaml:"silent,omitempty"`
}

type definitionView struct {
	Name        string           `json:"name" yaml:"name"`
	Namespace   string           `json:"namespace" yaml:"namespace"`
	Initial     string           `json:"initial" yaml:"initial"`
	Kinds       []string         `json:"kinds,omitempty" yaml:"kinds,omitempty"`
	States      []stateView      `json:"states,omitempty" yaml:"states,omitempty"`
	Transitions []transitionView `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

func kindsOf(name string) []string {
	var out []string
	for _, s := range catalog.Specs() {
		if s.Definition == name {
			out = append(out, string(s.Kind))
		}
	}
	return out
}

func viewOf(def *workflow.Definition, full bool) definitionView {
	v := definitionView{
		Name:      def.Name(),
		Namespace: def.Namespace(),
		Initial:   string(def.Initial()),
		Kinds:     kindsOf(def.Name()),
	}
	if !full {
		return v
	}
	for _, s := range def.States() {
		v.States = append(v.States, stateView{
			Name:     string(s),
			Label:    def.Label(s),
			Kind:     string(def.Kind(s)),
			Terminal: def.Terminal(s),
		})
	}
	for _, t := range def.Transitions() {
		tv := transitionView{Event: string(t.Event), Target: string(t.Target), Silent: def.Silent(t.Event)}
		for _, src := range t.Sources {
			tv.Sources = append(tv.Sources, string(src))
		}
		v.Transitions = append(v.Transitions, tv)
	}
	return v
}

func lookup(name string) (*workflow.Definition, error) {
	def, ok := catalog.DefinitionNamed(name)
	if !ok {
		return nil, fmt.Errorf("unknown workflow %q; run workflowctl list", name)
	}
	return def, nil
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var views []definitionView
			for _, def := range catalog.Definitions() {
				views = append(views, viewOf(def, false))
			}
			if opts.format != "text" {
				return encode(cmd.OutOrStdout(), opts.format, views)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tNAMESPACE\tINITIAL\tKINDS")
			for _, v := range views {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Name, v.Namespace, v.Initial, strings.Join(v.Kinds, ","))
			}
			return tw.Flush()
		},
	}
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [workflow]",
		Short: "Show the states and transitions of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := lookup(args[0])
			if err != nil {
				return err
			}
			v := viewOf(def, true)
			if opts.format != "text" {
				return encode(cmd.OutOrStdout(), opts.format, v)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (namespace %s, initial %s)\n\n", v.Name, v.Namespace, v.Initial)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATE\tKIND\tLABEL")
			for _, s := range v.States {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Kind, s.Label)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "EVENT\tFROM\tTO")
			for _, t := range v.Transitions {
				event := t.Event
				if t.Silent {
					event += " (silent)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", event, strings.Join(t.Sources, ","), t.Target)
			}
			return tw.Flush()
		},
	}
}

func newDotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dot [workflow]",
		Short: "Export a workflow as a Graphviz digraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := lookup(args[0])
			if err != nil {
				return err
			}
			return writeDot(cmd.OutOrStdout(), def)
		},
	}
}

func writeDot(w io.Writer, def *workflow.Definition) error {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", def.Name())
	b.WriteString("  rankdir=LR;\n")
	for _, s := range def.States() {
		shape := "box"
		switch {
		case s == def.Initial():
			shape = "oval"
		case def.Terminal(s):
			shape = "doublecircle"
		}
		fmt.Fprintf(&b, "  %q [shape=%s, label=%q];\n", s, shape, def.Label(s))
	}
	for _, t := range def.Transitions() {
		style := "solid"
		if def.Silent(t.Event) {
			style = "dashed"
		}
		for _, src := range t.Sources {
			fmt.Fprintf(&b, "  %q -> %q [label=%q, style=%s];\n", src, t.Target, t.Event, style)
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
