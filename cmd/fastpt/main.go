package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"runtime/trace"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// main is the entry point for the fastpt command line tool.
func main() {
	if err := realMain(os.Args[1:]); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// globalConfig holds the flags shared by all commands. They can also be set
// through FASTPT_* environment variables or a TOML config file.
type globalConfig struct {
	logLevel   string
	cpuProfile string
	trace      string
	chunkSize  int
	workers    int
	resync     bool
	maxSyncs   int
}

// realMain is a helper function for main that returns an error.
func realMain(args []string) error {
	var cfg globalConfig
	rootFS := flag.NewFlagSet("fastpt", flag.ContinueOnError)
	rootFS.String("config", "", "TOML config file (optional)")
	rootFS.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootFS.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write cpu profile to file")
	rootFS.StringVar(&cfg.trace, "trace", "", "write trace to file")
	rootFS.IntVar(&cfg.chunkSize, "chunk-size", 0, "decode in chunks of this many bytes, 0 maps the whole file")
	rootFS.IntVar(&cfg.workers, "workers", 0, "decode on this many goroutines, 0 decodes sequentially")
	rootFS.BoolVar(&cfg.resync, "resync", false, "continue at the next sync point after a decode error")
	rootFS.IntVar(&cfg.maxSyncs, "max-syncs", 0, "maximum number of sync points to look for, 0 means no limit")

	var log = newLogger(os.Stderr)
	root := &ffcli.Command{
		Name:       "fastpt",
		ShortUsage: "fastpt [flags] <subcommand> [flags] <args>",
		ShortHelp:  "Decode Intel PT packet streams.",
		FlagSet:    rootFS,
		Options: []ff.Option{
			ff.WithEnvVarPrefix("FASTPT"),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(tomlParser),
			ff.WithAllowMissingConfigFile(true),
		},
		Subcommands: []*ffcli.Command{
			decodeCommand(&cfg, &log),
			syncCommand(&cfg),
			verifyCommand(),
			printCommand(),
			breakdownCommand(),
			pprofCommand(),
			genCommand(),
			anonymizeCommand(),
		},
		Exec: func(context.Context, []string) error {
			rootFS.Usage()
			return flag.ErrHelp
		},
	}

	if err := root.Parse(args); err != nil {
		return err
	}

	var err error
	if log, err = setLogLevel(log, cfg.logLevel); err != nil {
		return err
	}

	if cfg.cpuProfile != "" {
		file, err := os.Create(cfg.cpuProfile)
		if err != nil {
			return err
		}
		defer file.Close()

		if err := pprof.StartCPUProfile(file); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	if cfg.trace != "" {
		file, err := os.Create(cfg.trace)
		if err != nil {
			return err
		}
		defer file.Close()

		if err := trace.Start(file); err != nil {
			return err
		}
		defer trace.Stop()
	}

	return root.Run(context.Background())
}

// envOptions lets subcommand flags be set through the environment.
func envOptions() []ff.Option {
	return []ff.Option{ff.WithEnvVarPrefix("FASTPT")}
}

// checkArgs returns an error if args doesn't hold exactly n arguments.
func checkArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}
