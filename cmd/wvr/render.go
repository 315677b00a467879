package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"pipelined.dev/wvr"
	"pipelined.dev/wvr/capture"
	"pipelined.dev/wvr/control"
	"pipelined.dev/wvr/input"
	"pipelined.dev/wvr/metric"
	"pipelined.dev/wvr/software"
)

func newRenderCommand(opts *options) *cobra.Command {
	var (
		frames  int
		captureFrames bool
		output  string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render frames headless with locked speed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if frames <= 0 {
				return fmt.Errorf("invalid number of frames: %d", frames)
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			cfg.View.LockedSpeed = true
			cfg.View.Screenshot = captureFrames || cfg.View.Screenshot
			if output != "" {
				cfg.View.ScreenshotPath = output
			}

			catalog := software.NewCatalog()
			s, err := wvr.New(cfg, software.NewDevice(catalog), catalog,
				wvr.WithLogger(opts.logger(cmd.ErrOrStderr())),
				wvr.WithDrivers(input.Drivers{OpenVideo: input.OpenSequence}),
			)
			if err != nil {
				return err
			}
			if err := s.Send(control.Start{}); err != nil {
				s.Close()
				return err
			}

			ctx := cmd.Context()
			rendered := 0
			for rendered < frames {
				if err := ctx.Err(); err != nil {
					s.Close()
					return err
				}
				if _, err := s.Frame(); err != nil {
					s.Close()
					return err
				}
				rendered++
			}
			if err := s.Close(); err != nil {
				return fmt.Errorf("capture: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rendered %d frames at %v fps\n", rendered, cfg.View.TargetFPS)
			if cfg.View.Screenshot {
				fmt.Fprintf(out, "frames written to %s\n", cfg.OutputDir())
			}
			components := map[string]map[string]string{"session": metric.Get(s)}
			if cfg.View.Screenshot {
				components["capture"] = metric.Get(&capture.Sink{})
			}
			fmt.Fprintln(out, metricsTable(components))
			return nil
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 60, "Number of frames to render")
	cmd.Flags().BoolVar(&captureFrames, "capture", false, "Write rendered frames as BMP files")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Capture directory, overrides screenshot_path")
	return cmd
}

func metricsTable(components map[string]map[string]string) string {
	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)
	var rows [][]string
	for _, name := range names {
		counters := components[name]
		keys := make([]string, 0, len(counters))
		for k := range counters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{name, k, counters[k]})
		}
	}
	return renderTable([]string{"Component", "Counter", "Value"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}
