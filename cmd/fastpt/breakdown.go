package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/felixge/fastpt/pkg/breakdown"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/olekukonko/tablewriter"
	"github.com/peterbourgon/ff/v3/ffcli"
)

type BreakdownFlavor string

const (
	BreakdownCSV   BreakdownFlavor = "csv"
	BreakdownBytes BreakdownFlavor = "size"
	BreakdownCount BreakdownFlavor = "count"
)

func breakdownCommand() *ffcli.Command {
	var (
		fs     = flag.NewFlagSet("fastpt breakdown", flag.ContinueOnError)
		flavor = fs.String("flavor", string(BreakdownBytes), "output flavor: size, count or csv")
	)
	return &ffcli.Command{
		Name:       "breakdown",
		ShortUsage: "fastpt breakdown [-flavor size|count|csv] <input>",
		ShortHelp:  "Break down a capture by packet kind.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(_ context.Context, args []string) error {
			return BreakdownCommand(BreakdownFlavor(*flavor), args)
		},
	}
}

func BreakdownCommand(flavor BreakdownFlavor, args []string) error {
	// Check the number of arguments
	if err := checkArgs(args, 1); err != nil {
		return err
	}

	// Map the input file
	f, err := tracefile.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	// Break down the capture by packet kind
	bd := breakdown.ByKind(f.Data)

	totalBytes := int64(0)
	totalCount := int64(0)
	summaries := make([]breakdown.KindSummary, 0, len(bd.Kinds))
	for _, ks := range bd.Kinds {
		summaries = append(summaries, ks)
		totalBytes += ks.Bytes
		totalCount += ks.Count
	}

	var header []string
	var rows [][]string
	var footer []string
	switch flavor {
	case BreakdownCSV:
		header = []string{"Packet Kind", "Count", "Bytes"}
		cw := csv.NewWriter(os.Stdout)
		cw.Write(header)
		for _, ks := range summaries {
			cw.Write([]string{
				ks.Kind.String(),
				fmt.Sprintf("%d", ks.Count),
				fmt.Sprintf("%d", ks.Bytes),
			})
		}
		cw.Flush()
		return cw.Error()
	case BreakdownCount:
		header = []string{"Packet Kind", "Count", "%"}
		sort.Slice(summaries, func(i, j int) bool {
			return summaries[i].Count > summaries[j].Count
		})
		for _, ks := range summaries {
			rows = append(rows, []string{
				ks.Kind.String(),
				fmt.Sprintf("%d", ks.Count),
				percent(ks.Count, totalCount),
			})
		}
		footer = []string{"Total", fmt.Sprintf("%d", totalCount), "100.00%"}
	case BreakdownBytes:
		header = []string{"Packet Kind", "Bytes", "%"}
		sort.Slice(summaries, func(i, j int) bool {
			return summaries[i].Bytes > summaries[j].Bytes
		})
		for _, ks := range summaries {
			rows = append(rows, []string{
				ks.Kind.String(),
				humanize.Bytes(uint64(ks.Bytes)),
				percent(ks.Bytes, totalBytes),
			})
		}
		footer = []string{"Total", humanize.Bytes(uint64(totalBytes)), "100.00%"}
	default:
		return fmt.Errorf("unknown breakdown flavor: %q", flavor)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.SetFooter(footer)
	table.Render()

	fmt.Printf("skipped %s before the first sync point, %s undecoded\n",
		humanize.Bytes(uint64(bd.Skipped)), humanize.Bytes(uint64(bd.Undecoded)))
	if bd.Stop != nil {
		fmt.Printf("stopped: %s\n", bd.Stop)
	}
	return nil
}

// percent formats n as a percentage of total.
func percent(n, total int64) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)/float64(total)*100)
}
