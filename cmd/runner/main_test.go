package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveScript(t *testing.T) {
	scriptsDir := t.TempDir()
	inScriptsDir := filepath.Join(scriptsDir, "api_smoke.js")
	require.NoError(t, os.WriteFile(inScriptsDir, []byte("export default function () {}\n"), 0o644))

	local := filepath.Join(t.TempDir(), "local.js")
	require.NoError(t, os.WriteFile(local, []byte("export default function () {}\n"), 0o644))

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"empty stays empty", "", ""},
		{"absolute path used as given", local, local},
		{"bare name found under scripts dir", "api_smoke.js", inScriptsDir},
		{"unknown script returned unchanged", "missing.js", "missing.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveScript(scriptsDir, tt.script))
		})
	}
}

func TestTrackProgressStopsOnQuit(t *testing.T) {
	quit := make(chan struct{})
	done := make(chan struct{})
	go trackProgress(filepath.Join(t.TempDir(), "out.json"), 0, zap.NewNop(), quit, done)

	close(quit)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("progress goroutine did not stop")
	}
}
