package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// AppFlags holds the parsed command line
type AppFlags struct {
	ConfigFile  string
	Once        bool
	DryRun      bool
	Validate    bool
	ResetMemory bool
	Help        bool
}

// ParseFlags parses args (without the program name)
func ParseFlags(args []string, output io.Writer) (AppFlags, error) {
	var flags AppFlags

	flagSet := pflag.NewFlagSet("firefoxversions", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVarP(&flags.ConfigFile, "config", "c", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	flagSet.BoolVar(&flags.Once, "once", false, "Run a single check and exit")
	flagSet.BoolVar(&flags.DryRun, "dry-run", false, "Run a single check without storing memory or events; print the events that would be created")
	flagSet.BoolVar(&flags.Validate, "validate", false, "Validate the configuration and agent options, then exit")
	flagSet.BoolVar(&flags.ResetMemory, "reset-memory", false, "Forget the last stored snapshot of the agent, then exit")
	flagSet.BoolVarP(&flags.Help, "help", "h", false, "Show help")

	if err := flagSet.Parse(args); err != nil {
		return AppFlags{}, err
	}
	if flags.Help {
		_, _ = fmt.Fprintf(output, "Usage:\n  firefoxversions [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
		return flags, nil
	}

	if rest := flagSet.Args(); len(rest) > 0 {
		return AppFlags{}, fmt.Errorf("unexpected argument: %s", rest[0])
	}

	modes := 0
	for _, set := range []bool{flags.Once, flags.DryRun, flags.Validate, flags.ResetMemory} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return AppFlags{}, fmt.Errorf("--once, --dry-run, --validate and --reset-memory are mutually exclusive")
	}

	return flags, nil
}
