package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func verifyCommand() *ffcli.Command {
	fs := flag.NewFlagSet("fastpt verify", flag.ContinueOnError)
	return &ffcli.Command{
		Name:       "verify",
		ShortUsage: "fastpt verify <input>",
		ShortHelp:  "Check that all sync point scanners agree on a capture.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, args []string) error {
			if err := checkArgs(args, 1); err != nil {
				return err
			}
			return VerifyCommand(args[0])
		},
	}
}

// VerifyCommand walks the capture at path from sync point to sync point and
// fails if the scanners disagree about any of them.
func VerifyCommand(path string) error {
	f, err := tracefile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := verifySyncs(f.Data)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d sync points\n", n)
	return nil
}

// verifySyncs compares FindNextSync against the reference scanners for every
// sync point in data and returns the number of sync points.
func verifySyncs(data []byte) (int, error) {
	var (
		n    int
		base int
	)
	for {
		want, wantOK := pt.FindNextSync(data)
		for name, fn := range map[string]func([]byte) (int, bool){
			"naive":   pt.FindNextSyncNaive,
			"stepped": pt.FindNextSyncStepped,
		} {
			got, ok := fn(data)
			if got != want || ok != wantOK {
				return n, fmt.Errorf("%s scanner disagrees after offset %#x: got=(%#x, %v) want=(%#x, %v)",
					name, base, base+got, ok, base+want, wantOK)
			}
		}
		if !wantOK {
			return n, nil
		}
		n++
		data = data[want+pt.PSBSize:]
		base += want + pt.PSBSize
	}
}
