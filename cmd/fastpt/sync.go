package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/olekukonko/tablewriter"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func syncCommand(cfg *globalConfig) *ffcli.Command {
	fs := flag.NewFlagSet("fastpt sync", flag.ContinueOnError)
	return &ffcli.Command{
		Name:       "sync",
		ShortUsage: "fastpt [-max-syncs n] sync <input>",
		ShortHelp:  "List the sync points of a capture.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, args []string) error {
			if err := checkArgs(args, 1); err != nil {
				return err
			}
			return SyncCommand(args[0], cfg.maxSyncs)
		},
	}
}

// SyncCommand prints the offsets of up to maxSyncs sync points in the capture at
// path and the range they span.
func SyncCommand(path string, maxSyncs int) error {
	f, err := tracefile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := pt.FindSyncRange(f.Data, maxSyncs)
	var oneErr *pt.OneSyncError
	switch {
	case errors.As(err, &oneErr):
		fmt.Printf("only one sync point at %#x, no decodable range\n", oneErr.Offset)
		return nil
	case err != nil:
		return err
	}

	points := pt.SyncPoints(f.Data, maxSyncs)
	rows := make([][]string, 0, len(points))
	for i, p := range points {
		gap := ""
		if i > 0 {
			gap = fmt.Sprintf("%d", p-points[i-1])
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i), fmt.Sprintf("%#x", p), gap})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Offset", "Gap"})
	table.AppendBulk(rows)
	table.SetFooter([]string{"Range", r.String(), fmt.Sprintf("%d", r.Len())})
	table.Render()
	return nil
}
