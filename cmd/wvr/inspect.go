package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pipelined.dev/wvr/config"
	"pipelined.dev/wvr/software"
)

func newInspectCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show inputs and render chain of the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			catalog := software.NewCatalog()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "project %s: %dx%d at %v fps, %v bpm\n",
				cfg.Path, cfg.View.Width, cfg.View.Height, cfg.View.TargetFPS, cfg.BPM)
			fmt.Fprintln(out, inputsTable(cfg))
			fmt.Fprintln(out, stagesTable(cfg, catalog))
			return nil
		},
	}
}

func inputsTable(cfg *config.Session) string {
	names := make([]string, 0, len(cfg.Inputs))
	for name := range cfg.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		in := cfg.Inputs[name]
		source := in.Path
		if in.Type == "midi" {
			source = fmt.Sprintf("%s cc%d", in.Port, in.Controller)
		}
		size := ""
		if in.Width > 0 && in.Height > 0 {
			size = fmt.Sprintf("%dx%d", in.Width, in.Height)
		}
		rows = append(rows, []string{name, in.Type, source, size})
	}
	return renderTable([]string{"Input", "Type", "Source", "Size"}, rows, nil)
}

func stagesTable(cfg *config.Session, catalog *software.Catalog) string {
	rows := make([][]string, 0, len(cfg.RenderChain)+1)
	for i, s := range cfg.RenderChain {
		rows = append(rows, stageRow(strconv.Itoa(i), s, catalog))
	}
	rows = append(rows, stageRow("final", cfg.FinalStage, catalog))
	return renderTable(
		[]string{"#", "Stage", "Filter", "Precision", "Inputs", "Variables", "Status"},
		rows,
		[]columnAlignment{alignRight},
	)
}

func stageRow(index string, s config.Stage, catalog *software.Catalog) []string {
	bindings := make([]string, 0, len(s.Inputs))
	for slot, b := range s.Inputs {
		source := "input " + b.Input
		if b.Stage != "" {
			source = "stage " + b.Stage
		}
		bindings = append(bindings, fmt.Sprintf("%s=%s", slot, source))
	}
	sort.Strings(bindings)
	variables := make([]string, 0, len(s.Variables))
	for name, v := range s.Variables {
		if v.Automation != nil {
			name += "~"
		}
		variables = append(variables, name)
	}
	sort.Strings(variables)

	status := "ok"
	if _, err := catalog.Resolve(s.Filter); err != nil {
		status = "unknown filter"
		if !errors.Is(err, software.ErrUnknownFilter) {
			status = err.Error()
		}
	}
	return []string{index, s.Name, s.Filter, s.Precision, strings.Join(bindings, " "), strings.Join(variables, " "), status}
}
