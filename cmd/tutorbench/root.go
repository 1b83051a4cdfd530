package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutorbench",
		Short: "Benchmark LLM backends as a children's English tutor",
		Long: `tutorbench runs a scripted suite of conversational test cases against
multiple LLM backends under a fixed English-tutor persona for children aged
3 to 6, scores every response along five heuristic dimensions, and renders
comparative reports with per-model rankings.`,
		Version:      version,
		SilenceUsage: true,
	}

	debug := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if *debug {
			level = slog.LevelDebug
		}
		// Report text goes to stdout; logs stay on stderr.
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newReportCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
