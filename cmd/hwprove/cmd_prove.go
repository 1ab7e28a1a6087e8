package main

import (
	"fmt"
	"log/slog"

	"github.com/borzacchiello/hwprove"
	"github.com/spf13/cobra"
)

func loadOptions() (hwprove.Options, error) {
	opts := hwprove.DefaultOptions()
	if configPath != "" {
		var err error
		if opts, err = hwprove.LoadOptions(configPath); err != nil {
			return opts, err
		}
	}
	if backendName != "" {
		opts.Backend = backendName
	}
	opts.Logger = slog.Default()
	return opts, opts.Validate()
}

func runProve(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	g, names, err := hwprove.LoadGraphFile(args[0])
	if err != nil {
		return err
	}
	pred, ok := names[predicate]
	if !ok {
		return fmt.Errorf("no node named %q in %s", predicate, args[0])
	}

	out, err := hwprove.TryProveWithOptions(g, pred, negate, timeout, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.String())

	switch out.Verdict {
	case hwprove.Proved:
		return nil
	case hwprove.Disproved:
		return exitCode(exitDisproved)
	}
	return exitCode(exitUnknown)
}
