package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pipelined.dev/wvr/config"
	"pipelined.dev/wvr/log"
)

// options are shared by all commands.
type options struct {
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "wvr",
		Short:         "Beat-synchronized shader compositor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "wvr.toml", "Project configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newRenderCommand(opts))
	rootCmd.AddCommand(newInspectCommand(opts))
	rootCmd.AddCommand(newInitCommand(opts))
	return rootCmd
}

func (o *options) load() (*config.Session, error) {
	return config.Load(o.configPath)
}

// logger writes text with colors to terminals and JSON elsewhere.
func (o *options) logger(w io.Writer) *logrus.Logger {
	l := log.GetLogger()
	l.SetOutput(w)
	if o.verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	if isTerminal(w) {
		l.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
