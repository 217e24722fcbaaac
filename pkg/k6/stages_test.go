package k6

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStages(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Stages
		wantErr string
	}{
		{
			name:  "single stage",
			input: "30s:10",
			want:  Stages{{Duration: "30s", Target: 10}},
		},
		{
			name:  "full ramp profile",
			input: "30s:10,1m:50,30s:0",
			want: Stages{
				{Duration: "30s", Target: 10},
				{Duration: "1m", Target: 50},
				{Duration: "30s", Target: 0},
			},
		},
		{
			name:  "whitespace tolerated",
			input: " 30s : 10 , 1m : 50 ",
			want: Stages{
				{Duration: "30s", Target: 10},
				{Duration: "1m", Target: 50},
			},
		},
		{
			name:  "empty string means no override",
			input: "",
			want:  nil,
		},
		{
			name:    "missing target",
			input:   "30s",
			wantErr: "expected duration:target",
		},
		{
			name:    "bad duration",
			input:   "thirty:10",
			wantErr: "invalid stage duration",
		},
		{
			name:    "bad target",
			input:   "30s:ten",
			wantErr: "invalid stage target",
		},
		{
			name:    "negative target",
			input:   "30s:-5",
			wantErr: "must not be negative",
		},
		{
			name:    "only separators",
			input:   ", ,",
			wantErr: "no stages found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStages(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStagesEnvValue(t *testing.T) {
	stages := Stages{
		{Duration: "30s", Target: 10},
		{Duration: "1m", Target: 0},
	}

	got, err := stages.EnvValue()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"duration":"30s","target":10},{"duration":"1m","target":0}]`, got)

	empty, err := Stages(nil).EnvValue()
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStagesString(t *testing.T) {
	stages := Stages{
		{Duration: "30s", Target: 10},
		{Duration: "1m", Target: 50},
	}
	assert.Equal(t, "30s:10,1m:50", stages.String())
}

func TestStagesTotalDuration(t *testing.T) {
	stages, err := ParseStages("30s:10,1m:50,30s:0")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, stages.TotalDuration())
}
