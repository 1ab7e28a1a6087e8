package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	exitProved    = 0
	exitDisproved = 1
	exitError     = 2
	exitUnknown   = 3
)

// exitCode carries a non-error process status out of a command.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// --- Global Command Variables ---
var (
	configPath  string
	verbose     bool
	predicate   string
	negate      bool
	timeout     time.Duration
	backendName string
	dump        bool

	rootCmd = &cobra.Command{
		Use:           "hwprove",
		Short:         "Prove properties of bit-vector expression graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	proveCmd = &cobra.Command{
		Use:   "prove [graph.yaml]",
		Short: "Try to prove a 1-bit predicate of a graph file",
		Long: `Checks whether the predicate node can be true (or false with --negate).
Exit status is 0 when proved, 1 when disproved, 3 when unknown and 2 on error.`,
		Args: cobra.ExactArgs(1),
		RunE: runProve,
	}

	inspectCmd = &cobra.Command{
		Use:   "inspect [graph.yaml]",
		Short: "Print the nodes of a graph file",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	proveCmd.Flags().StringVarP(&predicate, "predicate", "p", "", "name of the predicate node")
	proveCmd.Flags().BoolVar(&negate, "negate", false, "prove that the predicate always holds")
	proveCmd.Flags().DurationVar(&timeout, "timeout", 0, "deadline of the proof attempt (0 uses the configured default)")
	proveCmd.Flags().StringVar(&backendName, "backend", "", "decision procedure: z3 or gini")
	proveCmd.Flags().StringVar(&configPath, "config", "", "YAML options file")
	proveCmd.MarkFlagRequired("predicate")

	inspectCmd.Flags().BoolVar(&dump, "dump", false, "dump the parsed graph structures")

	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(inspectCmd)
}
