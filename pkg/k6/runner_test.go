package k6

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub writes an executable shell script standing in for the k6 binary
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "k6-stub.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func stubRunConfig(t *testing.T) *RunConfig {
	t.Helper()
	cfg := baseRunConfig()
	cfg.ResultsFile = filepath.Join(t.TempDir(), "out.json")
	return cfg
}

func TestRunnerWaitExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  bool
	}{
		{"clean exit", "exit 0", 0, false},
		{"thresholds crossed is not an error", "exit 99", 99, false},
		{"launch failure surfaces the code", "exit 7", 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRunner(writeStub(t, tt.body), time.Second, nil)
			require.NoError(t, r.Start(context.Background(), stubRunConfig(t)))

			code, err := r.Wait()
			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunnerWaitNeverStarted(t *testing.T) {
	r := NewRunner("k6", time.Second, nil)
	_, err := r.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never started")
}

func TestRunnerStopBeforeStart(t *testing.T) {
	r := NewRunner("k6", time.Second, nil)
	assert.NotPanics(t, r.Stop)
}

// Stop is called from a signal goroutine while the main goroutine is blocked
// in Wait; both must return promptly and agree on the outcome.
func TestRunnerStopDuringWait(t *testing.T) {
	r := NewRunner(writeStub(t, "sleep 30"), 5*time.Second, nil)
	require.NoError(t, r.Start(context.Background(), stubRunConfig(t)))

	go func() {
		time.Sleep(200 * time.Millisecond)
		r.Stop()
	}()

	start := time.Now()
	code, err := r.Wait()
	assert.Error(t, err)
	assert.NotEqual(t, 0, code)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRunnerStopKillsStubbornProcess(t *testing.T) {
	r := NewRunner(writeStub(t, "trap '' INT TERM\nwhile :; do sleep 1; done"), 300*time.Millisecond, nil)
	require.NoError(t, r.Start(context.Background(), stubRunConfig(t)))

	// Give the stub time to install its trap
	time.Sleep(200 * time.Millisecond)

	start := time.Now()
	r.Stop()
	code, err := r.Wait()

	assert.Error(t, err)
	assert.NotEqual(t, 0, code)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunnerStopAfterExit(t *testing.T) {
	r := NewRunner(writeStub(t, "exit 0"), time.Second, nil)
	require.NoError(t, r.Start(context.Background(), stubRunConfig(t)))

	code, err := r.Wait()
	require.NoError(t, err)
	assert.Zero(t, code)

	assert.NotPanics(t, r.Stop)
}
