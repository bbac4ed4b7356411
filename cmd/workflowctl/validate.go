package main

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"merenda/internal/workflow"
	"merenda/internal/workflow/catalog"
)

// definitionFile is the YAML form of a draft workflow.
type definitionFile struct {
	Name      string `yaml:"name"`
	Namespace string `yaml:"namespace"`
	Initial   string `yaml:"initial"`
	States    []struct {
		Name  string `yaml:"name"`
		Label string `yaml:"label"`
		Kind  string `yaml:"kind"`
	} `yaml:"states"`
	Transitions []struct {
		Event   string   `yaml:"event"`
		Sources []string `yaml:"sources"`
		Target  string   `yaml:"target"`
	} `yaml:"transitions"`
	Silent []string `yaml:"silent"`
}

func (f definitionFile) build() (*workflow.Definition, error) {
	b := workflow.Define(f.Name, f.Namespace, workflow.State(f.Initial))
	for _, s := range f.States {
		kind := workflow.StateKind(s.Kind)
		if kind == "" {
			kind = workflow.KindActive
		}
		b.State(workflow.State(s.Name), s.Label, kind)
	}
	for _, t := range f.Transitions {
		sources := make([]workflow.State, 0, len(t.Sources))
		for _, src := range t.Sources {
			sources = append(sources, workflow.State(src))
		}
		b.Transition(workflow.Event(t.Event), workflow.State(t.Target), sources...)
	}
	for _, ev := range f.Silent {
		b.Silent(workflow.Event(ev))
	}
	return b.Build()
}

func loadDefinitionFile(path string) (*workflow.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f definitionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.build()
}

// unreachable lists the states no path from the initial state reaches.
func unreachable(def *workflow.Definition) []workflow.State {
	seen := map[workflow.State]bool{def.Initial(): true}
	queue := []workflow.State{def.Initial()}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, ev := range def.Available(s) {
			t, ok := def.Resolve(s, ev)
			if ok && !seen[t.Target] {
				seen[t.Target] = true
				queue = append(queue, t.Target)
			}
		}
	}
	var out []workflow.State
	for _, s := range def.States() {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}

func check(def *workflow.Definition) error {
	if lost := unreachable(def); len(lost) > 0 {
		return fmt.Errorf("workflow %s: unreachable states %v", def.Name(), lost)
	}
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate definition files, or the built-in catalog when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var errs []error
			if len(args) == 0 {
				for _, def := range catalog.Definitions() {
					if err := check(def); err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Fprintf(out, "ok  %s\n", def.Name())
				}
				return errors.Join(errs...)
			}
			for _, path := range slices.Clone(args) {
				def, err := loadDefinitionFile(path)
				if err == nil {
					err = check(def)
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
					continue
				}
				fmt.Fprintf(out, "ok  %s (%s)\n", path, def.Name())
			}
			return errors.Join(errs...)
		},
	}
}
