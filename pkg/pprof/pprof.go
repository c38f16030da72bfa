package pprof

import (
	"io"
	"sort"

	"github.com/felixge/fastpt/pkg/breakdown"
	"github.com/google/pprof/profile"
)

// Options configures Convert.
type Options struct {
	// Unparsed adds samples for the bytes skipped in front of the first sync
	// point and the bytes left after decoding stopped.
	Unparsed bool
}

// Convert decodes data and writes a pprof profile to w that attributes
// packet counts and bytes to one function per packet kind. The profile can
// be explored with go tool pprof.
func Convert(data []byte, w io.Writer, opt Options) error {
	bd := breakdown.ByKind(data)

	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "packets", Unit: "count"},
			{Type: "size", Unit: "bytes"},
		},
		DefaultSampleType: "size",
	}

	root := &profile.Function{ID: 1, Name: "stream", SystemName: "stream"}
	p.Function = append(p.Function, root)
	rootLoc := &profile.Location{ID: 1, Line: []profile.Line{{Function: root}}}
	p.Location = append(p.Location, rootLoc)

	addSample := func(name string, count, bytes int64) {
		fn := &profile.Function{
			ID:         uint64(len(p.Function) + 1),
			Name:       name,
			SystemName: name,
		}
		p.Function = append(p.Function, fn)
		loc := &profile.Location{
			ID:   uint64(len(p.Location) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc, rootLoc},
			Value:    []int64{count, bytes},
			Label:    map[string][]string{"kind": {name}},
		})
	}

	summaries := make([]breakdown.KindSummary, 0, len(bd.Kinds))
	for _, ks := range bd.Kinds {
		summaries = append(summaries, ks)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Kind < summaries[j].Kind
	})
	for _, ks := range summaries {
		addSample(ks.Kind.String(), ks.Count, ks.Bytes)
	}

	if opt.Unparsed {
		if bd.Skipped > 0 {
			addSample("[skipped]", 0, bd.Skipped)
		}
		if bd.Undecoded > 0 {
			addSample("[undecoded]", 0, bd.Undecoded)
		}
	}

	if err := p.CheckValid(); err != nil {
		return err
	}
	return p.Write(w)
}
