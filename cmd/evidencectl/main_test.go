package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

func init() {
	color.NoColor = true
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, domain.Success("sess-1", "command-logs attached")))
	assert.Contains(t, buf.String(), "✓ command-logs attached")
	assert.Contains(t, buf.String(), "session: sess-1")

	buf.Reset()
	err := printResult(&buf, domain.Failure("sess-1", "locate_initiator", domain.ErrorClassNotFound, "initiator not found"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locate_initiator")
	assert.Contains(t, buf.String(), "✗ initiator not found")
	assert.Contains(t, buf.String(), "class:   not_found")
}

func TestPrintResultJSON(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, domain.Success("sess-1", "ok")))

	var res domain.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &res))
	assert.Equal(t, 200, res.Code)
	assert.Equal(t, "sess-1", res.SessionID)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"replay", "session-started"},
		{"replay", "log-delivered"},
		{"locate"},
		{"ensure-flow"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestReplayMissingFile(t *testing.T) {
	rootCmd.SetArgs([]string{"replay", "session-started", filepath.Join(t.TempDir(), "missing.json")})
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
