package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/felixge/fastpt/pkg/pt"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func genCommand() *ffcli.Command {
	var (
		fs  = flag.NewFlagSet("fastpt gen", flag.ContinueOnError)
		opt pt.GenOptions
	)
	fs.IntVar(&opt.Segments, "segments", 1000, "number of PSB segments")
	fs.IntVar(&opt.Packets, "packets", 1000, "number of packets per segment")
	fs.Uint64Var(&opt.Seed, "seed", 1, "random seed")
	fs.IntVar(&opt.Garbage, "garbage", 0, "number of garbage bytes before the first PSB")
	return &ffcli.Command{
		Name:       "gen",
		ShortUsage: "fastpt gen [flags] <output>",
		ShortHelp:  "Write a synthetic capture, xz compressed if output ends in .xz.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, args []string) error {
			if err := checkArgs(args, 1); err != nil {
				return err
			}
			return GenCommand(args[0], opt)
		},
	}
}

// GenCommand writes a synthetic capture to path and prints the checksum that
// decoding it must produce.
func GenCommand(path string, opt pt.GenOptions) error {
	w, err := tracefile.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()

	sum, err := pt.Generate(w, opt)
	if err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	var checksum uint64
	for _, v := range sum.Payloads {
		checksum += v
	}
	fmt.Printf("wrote %s, %d sync points, %s payloads, sum %d\n",
		humanize.Bytes(uint64(sum.Size)), len(sum.Syncs), humanize.Comma(int64(len(sum.Payloads))), checksum)
	return nil
}
