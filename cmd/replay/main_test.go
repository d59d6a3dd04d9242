package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/command"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/config"
	"github.com/colbychapman3/incident-replay-engine-sub000/internal/scenario"
)

func TestMain(m *testing.M) {
	if command.IsReducerProcess() {
		os.Exit(command.ServeReducer(os.Stdin, os.Stdout, os.Stderr))
	}
	os.Exit(m.Run())
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func sceneDir(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "scenario", "testdata", "ramp_incident.yaml"))
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ramp_incident.yaml"), data, 0644))
	return dir
}

func TestParseConfig(t *testing.T) {
	t.Setenv("INCIDENT_REPLAY_WORKERS", "3")
	t.Setenv("INCIDENT_REPLAY_FPS", "12")

	cfg, err := parseConfig(newFlagSet(), []string{"-fps", "24", "-sample", "-timeout", "2s"})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Workers, "environment sets defaults")
	assert.Equal(t, 24, cfg.FPS, "flags override the environment")
	assert.True(t, cfg.Sample)
	assert.Equal(t, 2*time.Second, cfg.CommandTimeout)
	assert.Equal(t, config.LiveScene, cfg.At)
	assert.Equal(t, buildVersion, cfg.BuildVersion)
	assert.Equal(t, config.IsolationProcess, cfg.Isolation)
}

func TestParseConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"sample and at", []string{"-sample", "-at", "2"}},
		{"negative workers", []string{"-workers", "-1"}},
		{"unknown flag", []string{"-zoom"}},
		{"zero timeout", []string{"-timeout", "0s"}},
		{"unknown isolation", []string{"-isolation", "thread"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseConfig(newFlagSet(), tt.args)
			assert.Error(t, err)
		})
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		SceneDir:        sceneDir(t),
		At:              config.LiveScene,
		CommandTimeout:  time.Second,
		MaxPayloadBytes: 4096,
		Workers:         2,
		Isolation:       config.IsolationGoroutine,
		BuildVersion:    "test",
	}
}

func TestRunToStdout(t *testing.T) {
	cfg := testConfig(t)
	var out, errOut bytes.Buffer

	require.NoError(t, run(context.Background(), cfg, &out, &errOut))

	var report map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "ramp-incident", report["scene"])
	assert.Equal(t, "live", report["mode"])
	assert.Len(t, report["digest"], 64)
	assert.Empty(t, errOut.String())
}

func TestRunArtifacts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Isolation = config.IsolationProcess
	outDir := t.TempDir()
	saveDir := t.TempDir()

	cmds := `[
  {"type": "MOVE_OBJECT", "payload": {"id": "mafi-1", "position": {"x": 30, "y": 0}}},
  {"type": "TOGGLE_ENVELOPE", "payload": {"envelope": "laser"}}
]`
	cfg.CommandsPath = filepath.Join(outDir, "commands.json")
	require.NoError(t, os.WriteFile(cfg.CommandsPath, []byte(cmds), 0644))

	cfg.OutputPath = filepath.Join(outDir, "reports", "report.yaml")
	cfg.QRPath = filepath.Join(outDir, "digest.png")
	cfg.AuditPath = filepath.Join(outDir, "audit", "audit.jsonl")
	cfg.SavePath = saveDir
	cfg.ShowStats = true

	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, &out, &errOut))

	assert.Empty(t, out.String(), "the report goes to -out")
	assert.Contains(t, errOut.String(), "--- [PERFORMANCE REPORT] ---")

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, 1, report["applied"])
	assert.Equal(t, 1, report["rejected"])

	png, err := os.ReadFile(cfg.QRPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	f, err := os.Open(cfg.AuditPath)
	require.NoError(t, err)
	defer f.Close()
	lines := 0
	for sc := bufio.NewScanner(f); sc.Scan(); {
		lines++
	}
	assert.Equal(t, 2, lines)

	saved, err := scenario.FindLatest(saveDir)
	require.NoError(t, err)
	doc, err := scenario.Read(saved)
	require.NoError(t, err)
	require.Len(t, doc.Objects, 4)
	assert.Equal(t, 30.0, doc.Objects[1].Position.X)
}

func TestRunMissingScene(t *testing.T) {
	cfg := testConfig(t)
	cfg.SceneDir = t.TempDir()

	err := run(context.Background(), cfg, io.Discard, io.Discard)
	assert.Error(t, err)
}
