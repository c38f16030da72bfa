package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/felixge/fastpt/pkg/pprof"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func pprofCommand() *ffcli.Command {
	var (
		fs  = flag.NewFlagSet("fastpt pprof", flag.ContinueOnError)
		opt pprof.Options
	)
	fs.BoolVar(&opt.Unparsed, "unparsed", false, "include skipped and undecoded bytes")
	return &ffcli.Command{
		Name:       "pprof",
		ShortUsage: "fastpt pprof [-unparsed] <input> <output>",
		ShortHelp:  "Convert a packet breakdown into a pprof profile.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, args []string) error {
			return PPROF(args, opt)
		},
	}
}

func PPROF(args []string, opt pprof.Options) error {
	// Check the number of arguments
	if err := checkArgs(args, 2); err != nil {
		return err
	}

	// Map the input file
	in, err := tracefile.Open(args[0])
	if err != nil {
		return err
	}
	defer in.Close()

	// Open the output file
	outFile, err := os.Create(args[1])
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer outFile.Close()

	// Convert capture to pprof
	if err := pprof.Convert(in.Data, outFile, opt); err != nil {
		return err
	}
	return outFile.Close()
}
