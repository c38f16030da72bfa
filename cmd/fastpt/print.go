package main

import (
	"bufio"
	"context"
	"flag"
	"os"
	"strings"

	"github.com/felixge/fastpt/pkg/print"
	"github.com/felixge/fastpt/pkg/pt"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func printCommand() *ffcli.Command {
	var (
		fs     = flag.NewFlagSet("fastpt print", flag.ContinueOnError)
		filter = print.DefaultPacketFilter()
		kinds  = fs.String("kinds", "", "comma separated packet kinds to print, e.g. PSB,PTW")
	)
	fs.Int64Var(&filter.MinOffset, "min-offset", filter.MinOffset, "print packets at or after this offset")
	fs.Int64Var(&filter.MaxOffset, "max-offset", filter.MaxOffset, "print packets at or before this offset, -1 for no limit")
	return &ffcli.Command{
		Name:       "print",
		ShortUsage: "fastpt print [flags] <input>",
		ShortHelp:  "Print the packets of a capture.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, args []string) error {
			if err := checkArgs(args, 1); err != nil {
				return err
			}
			if *kinds != "" {
				for _, name := range strings.Split(*kinds, ",") {
					kind, err := pt.ParseKind(strings.TrimSpace(name))
					if err != nil {
						return err
					}
					filter.Kinds = append(filter.Kinds, kind)
				}
			}
			return PrintPackets(args[0], filter)
		},
	}
}

// PrintPackets prints the packets of the capture at path to stdout.
func PrintPackets(path string, filter print.PacketFilter) error {
	f, err := tracefile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// Print all packets to stdout
	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()
	return print.Packets(f.Data, stdout, filter)
}
