package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() Frame {
	return Frame{
		Voltages:     [6]float64{5, 3.3, 12.05, 0, 1.234, 4.999},
		Currents:     [6]float64{0.5, 0.25, 0, 1.75, -0.125, 2},
		Temperatures: [4]float64{298.15, 273.15, 310.2, 250},
	}
}

func TestEncode(t *testing.T) {
	got := DefaultFormat().Encode(sampleFrame())
	want := "H" +
		"v0-5.00,1-3.30,2-12.05,3-0.00,4-1.23,5-5.00," +
		"c0-0.50,1-0.25,2-0.00,3-1.75,4--0.12,5-2.00," +
		"t0-298.15,1-273.15,2-310.20,3-250.00," +
		"F\n"
	assert.Equal(t, want, got)
}

func TestEncode_Zero(t *testing.T) {
	got := DefaultFormat().Encode(Frame{})
	assert.Equal(t, "Hv0-0.00,1-0.00,2-0.00,3-0.00,4-0.00,5-0.00,c0-0.00,1-0.00,2-0.00,3-0.00,4-0.00,5-0.00,t0-0.00,1-0.00,2-0.00,3-0.00,F\n", got)
}

func TestEncode_RecordCounts(t *testing.T) {
	f := Format{Header: "<<", Delimiter: ";", Footer: ">>"}
	line := f.Encode(sampleFrame())

	require.True(t, strings.HasPrefix(line, "<<v"))
	require.True(t, strings.HasSuffix(line, ">>\n"))
	assert.Equal(t, 16, strings.Count(line, ";"))

	vi := strings.Index(line, "v")
	ci := strings.Index(line, "c")
	ti := strings.Index(line, "t")
	assert.Less(t, vi, ci)
	assert.Less(t, ci, ti)
	assert.Equal(t, 6, strings.Count(line[vi:ci], ";"))
	assert.Equal(t, 6, strings.Count(line[ci:ti], ";"))
	assert.Equal(t, 4, strings.Count(line[ti:], ";"))
}

func TestParse_RoundTrip(t *testing.T) {
	formats := []Format{
		DefaultFormat(),
		{Header: "$HK", Delimiter: "|", Footer: "*"},
		{Header: "", Delimiter: ";", Footer: ""},
	}
	in := sampleFrame()
	for _, f := range formats {
		t.Run(f.Header+f.Delimiter+f.Footer, func(t *testing.T) {
			out, err := f.Parse(f.Encode(in))
			require.NoError(t, err)
			for i := range in.Voltages {
				assert.InDelta(t, in.Voltages[i], out.Voltages[i], 0.005)
				assert.InDelta(t, in.Currents[i], out.Currents[i], 0.005)
			}
			for i := range in.Temperatures {
				assert.InDelta(t, in.Temperatures[i], out.Temperatures[i], 0.005)
			}
		})
	}
}

func TestParse_Exact(t *testing.T) {
	out, err := DefaultFormat().Parse("Hv0-1.00,1-2.00,2-3.00,3-4.00,4-5.00,5-6.00,c0-0.10,1-0.20,2-0.30,3-0.40,4-0.50,5-0.60,t0-298.15,1-299.15,2-300.15,3-301.15,F\r\n")
	require.NoError(t, err)
	assert.Equal(t, [6]float64{1, 2, 3, 4, 5, 6}, out.Voltages)
	assert.Equal(t, [6]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, out.Currents)
	assert.Equal(t, [4]float64{298.15, 299.15, 300.15, 301.15}, out.Temperatures)
}

func TestParse_Malformed(t *testing.T) {
	valid := DefaultFormat().Encode(sampleFrame())

	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"no header", strings.TrimPrefix(valid, "H")},
		{"no footer", strings.Replace(valid, "F\n", "\n", 1)},
		{"header only", "HF"},
		{"missing current block", "Hv0-1.00,1-1.00,2-1.00,3-1.00,4-1.00,5-1.00,F"},
		{"wrong block order", "Hc0-1.00,1-1.00,2-1.00,3-1.00,4-1.00,5-1.00,v0-1.00,1-1.00,2-1.00,3-1.00,4-1.00,5-1.00,t0-1.00,1-1.00,2-1.00,3-1.00,F"},
		{"index out of order", strings.Replace(valid, "1-3.30", "2-3.30", 1)},
		{"bad value", strings.Replace(valid, "3.30", "3.3x", 1)},
		{"missing separator", strings.Replace(valid, "1-3.30", "13.30", 1)},
		{"truncated temperature", "Hv0-1.00,1-1.00,2-1.00,3-1.00,4-1.00,5-1.00,c0-1.00,1-1.00,2-1.00,3-1.00,4-1.00,5-1.00,t0-1.00,1-1.00,2-1.00F"},
		{"trailing data", strings.Replace(valid, "F\n", "x4-1.00,F\n", 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DefaultFormat().Parse(tt.line)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestFormat_Validate(t *testing.T) {
	require.NoError(t, DefaultFormat().Validate())
	assert.Error(t, Format{Header: "H", Footer: "F"}.Validate())
	assert.Error(t, Format{Header: "H", Delimiter: "-", Footer: "F"}.Validate())
	assert.Error(t, Format{Header: "H\n", Delimiter: ",", Footer: "F"}.Validate())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "0.00", FormatValue(0))
	assert.Equal(t, "298.15", FormatValue(298.15))
	assert.Equal(t, "1.24", FormatValue(1.2351))
	assert.Equal(t, "-3.50", FormatValue(-3.5))
}
