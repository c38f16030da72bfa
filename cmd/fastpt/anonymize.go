package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/felixge/fastpt/pkg/anonymize"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func anonymizeCommand() *ffcli.Command {
	var (
		fs  = flag.NewFlagSet("fastpt anonymize", flag.ContinueOnError)
		opt anonymize.Options
	)
	fs.Uint64Var(&opt.Key, "key", 0, "key for mapping payloads")
	fs.BoolVar(&opt.Zero, "zero", false, "replace all payloads with 0")
	return &ffcli.Command{
		Name:       "anonymize",
		ShortUsage: "fastpt anonymize [-key n | -zero] <input> <output>",
		ShortHelp:  "Obfuscate the PTW payloads of a capture.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, args []string) error {
			return AnonymizeCommand(args, opt)
		},
	}
}

func AnonymizeCommand(args []string, opt anonymize.Options) error {
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
	outFile, err := tracefile.Create(args[1])
	if err != nil {
		return err
	}
	defer outFile.Close()

	// Anonymize the capture
	bw := bufio.NewWriter(outFile)
	n, err := anonymize.AnonymizeTrace(in.Data, bw, opt)
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "replaced %d payloads\n", n)
	return outFile.Close()
}
