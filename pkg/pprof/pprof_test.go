package pprof

import (
	"bytes"
	"testing"

	"github.com/felixge/fastpt/pkg/pt"
	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	var buf bytes.Buffer
	sum, err := pt.Generate(&buf, pt.GenOptions{Segments: 4, Packets: 50, Seed: 13, Garbage: 6})
	require.NoError(t, err)
	data := append(buf.Bytes(), 0x19, 0x00)

	t.Run("Default", func(t *testing.T) {
		p := convert(t, data, Options{})
		assert.Equal(t, int64(4), samplesValue(p, "PSB", 0))
		assert.Equal(t, int64(4*pt.PSBSize), samplesValue(p, "PSB", 1))
		assert.Equal(t, int64(len(sum.Payloads)), samplesValue(p, "PTW", 0))
		assert.Equal(t, int64(0), samplesValue(p, "[skipped]", 1))

		var total int64
		for _, s := range p.Sample {
			total += s.Value[1]
		}
		assert.Equal(t, int64(buf.Len()-6), total)
	})

	t.Run("Unparsed", func(t *testing.T) {
		p := convert(t, data, Options{Unparsed: true})
		assert.Equal(t, int64(6), samplesValue(p, "[skipped]", 1))
		assert.Equal(t, int64(2), samplesValue(p, "[undecoded]", 1))

		var total int64
		for _, s := range p.Sample {
			total += s.Value[1]
		}
		assert.Equal(t, int64(len(data)), total)
	})
}

func convert(t *testing.T, data []byte, opt Options) *profile.Profile {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, Convert(data, &out, opt))
	p, err := profile.Parse(&out)
	require.NoError(t, err)
	return p
}

// samplesValue returns the i-th value of all samples whose leaf is fn.
func samplesValue(p *profile.Profile, fn string, i int) (v int64) {
	for _, s := range p.Sample {
		if s.Location[0].Line[0].Function.Name == fn {
			v += s.Value[i]
		}
	}
	return
}
