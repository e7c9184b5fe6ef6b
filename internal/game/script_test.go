package game

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/village-sim/internal/models"
)

const yamlScript = `
- op: place_building
  type: home
  x: 0
  y: 0
- op: tick
  advance: 3m
- op: upgrade_building
  cell: {x: 0, y: 0}
- op: tick
  at: 2024-03-01T09:00:00Z
- op: complete_prayer
  prayer: Fajr
`

const jsonlScript = `{"op":"place_building","type":"mosque","x":2,"y":2}
# comments and blank lines are skipped

{"op":"start_event","cell":{"x":2,"y":2},"event_id":"friday_prayer"}
{"op":"set_level","level":3}
`

func TestReadScriptYAML(t *testing.T) {
	cmds, err := ReadScript(strings.NewReader(yamlScript), "demo.yaml")
	require.NoError(t, err)
	require.Len(t, cmds, 5)

	assert.Equal(t, Command{Op: OpPlaceBuilding, Type: models.Home}, cmds[0])
	assert.Equal(t, "3m", cmds[1].Advance)
	assert.Equal(t, &models.Position{X: 0, Y: 0}, cmds[2].Cell)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), cmds[3].At.UTC())
	assert.Equal(t, "Fajr", cmds[4].Prayer)
}

func TestReadScriptJSONL(t *testing.T) {
	cmds, err := ReadScript(strings.NewReader(jsonlScript), "demo.jsonl")
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	assert.Equal(t, OpStartEvent, cmds[1].Op)
	assert.Equal(t, "friday_prayer", cmds[1].EventID)
	assert.Equal(t, 3, cmds[2].Level)
}

func TestReadScriptCompressed(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(jsonlScript))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	path := filepath.Join(t.TempDir(), "demo.jsonl.zst")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	cmds, err := LoadScript(path)
	require.NoError(t, err)
	assert.Len(t, cmds, 3)
}

func TestReadScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad.yaml", "- op: [\n"},
		{"bad.jsonl", "{\"op\":\n"},
		{"unknown.yaml", "- op: demolish\n"},
		{"invalid.jsonl", `{"op":"tick"}` + "\n"},
		{"garbage.yaml.zst", "not zstd"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadScript(strings.NewReader(tc.doc), tc.name)
			assert.Error(t, err)
		})
	}
}

func TestScriptReplay(t *testing.T) {
	s := newTestSession(t)
	cmds, err := ReadScript(strings.NewReader(yamlScript), "demo.yaml")
	require.NoError(t, err)

	var last Result
	for _, c := range cmds {
		last, err = s.Apply(c)
		require.NoError(t, err, c.String())
	}
	assert.Equal(t, 2, last.Snapshot.Buildings[0].Level)
	assert.True(t, last.Snapshot.Buildings[0].Productive)
}

func TestResultLog(t *testing.T) {
	for _, name := range []string{"results.jsonl", "results.jsonl.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			l, err := CreateResultLog(path)
			require.NoError(t, err)

			require.NoError(t, l.Write(Result{Command: Command{Op: OpSetLevel, Level: 2}}, nil))
			require.NoError(t, l.Write(Result{Command: Command{Op: OpSetLevel, Level: 1}}, models.ErrInvalidLevel))
			require.NoError(t, l.Close())

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			var sc *bufio.Scanner
			if strings.HasSuffix(name, ".zst") {
				dec, err := zstd.NewReader(f)
				require.NoError(t, err)
				defer dec.Close()
				sc = bufio.NewScanner(dec)
			} else {
				sc = bufio.NewScanner(f)
			}

			var lines []map[string]any
			for sc.Scan() {
				var m map[string]any
				require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
				lines = append(lines, m)
			}
			require.NoError(t, sc.Err())
			require.Len(t, lines, 2)
			assert.NotContains(t, lines[0], "error")
			assert.Equal(t, models.ErrInvalidLevel.Error(), lines[1]["error"])
		})
	}
}
