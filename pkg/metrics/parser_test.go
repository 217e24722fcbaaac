package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = `{"type":"Metric","metric":"http_req_duration","data":{"name":"http_req_duration","type":"trend","contains":"time"}}
{"type":"Point","metric":"http_req_duration","data":{"time":"2026-08-30T10:00:00.000Z","value":123.4,"tags":{"transaction":"login","status":"200"}}}
{"type":"Point","metric":"http_req_duration","data":{"time":"2026-08-30T10:00:01.000Z","value":234.5,"tags":{"transaction":"login","status":"200"}}}
{"type":"Point","metric":"http_req_failed","data":{"time":"2026-08-30T10:00:01.000Z","value":0,"tags":{"transaction":"login"}}}
`

func TestParseValidStream(t *testing.T) {
	parser := NewParser(nil, false)

	results, err := parser.Parse(strings.NewReader(sampleStream))
	require.NoError(t, err)

	assert.Len(t, results.Samples, 3)
	assert.Equal(t, 0, results.MalformedLines)

	def, ok := results.Definitions["http_req_duration"]
	require.True(t, ok)
	assert.Equal(t, "trend", def.Type)
	assert.Equal(t, "time", def.Contains)

	first := results.Samples[0]
	assert.Equal(t, "http_req_duration", first.Metric)
	assert.InDelta(t, 123.4, first.Value, 0.001)
	assert.Equal(t, "login", first.Tag("transaction"))
	assert.Equal(t, "200", first.Tag("status"))
}

func TestParseMalformedLines(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantSamples   int
		wantMalformed int
	}{
		{
			name:          "garbage line is skipped",
			input:         "not json at all\n" + sampleStream,
			wantSamples:   3,
			wantMalformed: 1,
		},
		{
			name:          "truncated tail from interrupted run",
			input:         sampleStream + `{"type":"Point","metric":"http_req_duration","data":{"time":"2026-08-`,
			wantSamples:   3,
			wantMalformed: 1,
		},
		{
			name:          "bad point payload",
			input:         `{"type":"Point","metric":"vus","data":"oops"}`,
			wantSamples:   0,
			wantMalformed: 1,
		},
		{
			name:          "blank lines are not malformed",
			input:         "\n\n" + sampleStream + "\n",
			wantSamples:   3,
			wantMalformed: 0,
		},
		{
			name:          "unknown envelope type ignored",
			input:         `{"type":"Snapshot","metric":"x","data":{}}`,
			wantSamples:   0,
			wantMalformed: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser(nil, true)
			results, err := parser.Parse(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Len(t, results.Samples, tt.wantSamples)
			assert.Equal(t, tt.wantMalformed, results.MalformedLines)
		})
	}
}

func TestParseEmptyStream(t *testing.T) {
	parser := NewParser(nil, false)
	results, err := parser.Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, results.Samples)
	assert.Empty(t, results.Definitions)
}

func TestParseFileMissing(t *testing.T) {
	parser := NewParser(nil, false)
	_, err := parser.ParseFile("/nonexistent/results.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open")
}
