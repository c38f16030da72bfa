package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/felixge/fastpt/pkg/parallel"
	"github.com/felixge/fastpt/pkg/stream"
	"github.com/felixge/fastpt/pkg/tracefile"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/rs/zerolog"
)

func decodeCommand(cfg *globalConfig, log *zerolog.Logger) *ffcli.Command {
	fs := flag.NewFlagSet("fastpt decode", flag.ContinueOnError)
	return &ffcli.Command{
		Name:       "decode",
		ShortUsage: "fastpt decode <input>",
		ShortHelp:  "Decode all PTW payloads and report throughput and checksum.",
		FlagSet:    fs,
		Options:    envOptions(),
		Exec: func(ctx context.Context, args []string) error {
			if err := checkArgs(args, 1); err != nil {
				return err
			}
			return DecodeCommand(ctx, args[0], cfg, *log)
		},
	}
}

// DecodeCommand decodes the capture at path and prints the decoding speed,
// the offset where decoding stopped and the wrap-around sum of all payloads.
func DecodeCommand(ctx context.Context, path string, cfg *globalConfig, log zerolog.Logger) error {
	var (
		stats stream.Stats
		start time.Time
	)
	count := func(uint64) {}

	switch {
	case cfg.chunkSize > 0:
		// Stream the file in bounded chunks
		r, err := tracefile.OpenReader(path)
		if err != nil {
			return err
		}
		defer r.Close()

		dec := stream.NewDecoder(r, stream.Options{
			ChunkSize: cfg.chunkSize,
			Resync:    cfg.resync,
			Logger:    &log,
		})
		start = time.Now()
		if stats, err = dec.Run(count); err != nil {
			return err
		}
	default:
		// Map the whole file
		f, err := tracefile.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		start = time.Now()
		if cfg.workers > 0 {
			if cfg.resync {
				log.Warn().Msg("-resync is ignored when decoding with -workers")
			}
			stats, err = parallel.Decode(ctx, f.Data, parallel.Options{Workers: cfg.workers}, count)
			if err != nil {
				return err
			}
		} else {
			stats = stream.DecodeAll(f.Data, stream.Options{Resync: cfg.resync}, count)
		}
	}
	elapsed := time.Since(start)

	if stats.Stop != nil {
		log.Warn().
			Err(stats.Stop).
			Int64("offset", stats.Offset).
			Msg("decoding stopped early")
	}
	log.Debug().
		Int("chunks", stats.Chunks).
		Int64("skipped", stats.Skipped).
		Int("resyncs", stats.Resyncs).
		Int64("payloads", stats.Payloads).
		Dur("elapsed", elapsed).
		Msg("decoded")

	fmt.Printf("%.2f GB/s, %#x %d\n", float64(stats.Offset)/float64(elapsed.Nanoseconds()), stats.Offset, stats.Sum)
	fmt.Printf("%s decoded, %s payloads\n", humanize.Bytes(uint64(stats.Offset)), humanize.Comma(stats.Payloads))
	return nil
}
